package lot_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"perpcrank/internal/lot"
	"perpcrank/internal/token"
)

func fakeInstrument(symbol string, decimals int32) token.Instrument {
	return token.NewInstrument(symbol, symbol+" test", decimals)
}

func converter(t *testing.T, baseSymbol string, baseDecimals int32, baseLotSize int64, quoteLotSize int64) lot.Converter {
	t.Helper()
	base := fakeInstrument(baseSymbol, baseDecimals)
	quote := fakeInstrument("USDC", 6)
	return lot.NewConverter(base, decimal.NewFromInt(baseLotSize), quote, decimal.NewFromInt(quoteLotSize))
}

func assertDecimal(t *testing.T, actual decimal.Decimal, expected string) {
	t.Helper()
	if !actual.Equal(decimal.RequireFromString(expected)) {
		t.Errorf("got %s, want %s", actual, expected)
	}
}

// ============================================================================
// Test: RoundBase
// ============================================================================

// Fixtures use real lot sizes from BTC/ETH/MNGO/SOL markets. Rounding always
// truncates down, so where the raw value sits between lot multiples the
// result is the lower multiple.

func TestRoundBase_BTC(t *testing.T) {
	sut := converter(t, "BTC", 6, 100, 10)
	actual := sut.RoundBase(decimal.RequireFromString("1234567890.1234567890"))
	assertDecimal(t, actual, "1234567890.1234")
}

func TestRoundBase_ETH(t *testing.T) {
	sut := converter(t, "ETH", 6, 1000, 10)
	actual := sut.RoundBase(decimal.RequireFromString("1234567890.1234567890"))
	assertDecimal(t, actual, "1234567890.123")
}

func TestRoundBase_MNGO(t *testing.T) {
	sut := converter(t, "MNGO", 6, 1000000, 100)
	actual := sut.RoundBase(decimal.RequireFromString("1234567890.1234567890"))
	assertDecimal(t, actual, "1234567890")
}

func TestRoundBase_SOL(t *testing.T) {
	sut := converter(t, "SOL", 9, 100000000, 100)
	actual := sut.RoundBase(decimal.RequireFromString("1234567890.1234567890"))
	assertDecimal(t, actual, "1234567890.1")
}

// ============================================================================
// Test: RoundQuote
// ============================================================================

func TestRoundQuote_BTC(t *testing.T) {
	sut := converter(t, "BTC", 6, 100, 10)
	actual := sut.RoundQuote(decimal.RequireFromString("1234567890.1234567890"))
	assertDecimal(t, actual, "1234567890.1")
}

func TestRoundQuote_ETH(t *testing.T) {
	sut := converter(t, "ETH", 6, 1000, 10)
	actual := sut.RoundQuote(decimal.RequireFromString("1234567890.1234567890"))
	assertDecimal(t, actual, "1234567890.12")
}

func TestRoundQuote_MNGO(t *testing.T) {
	sut := converter(t, "MNGO", 6, 1000000, 100)
	actual := sut.RoundQuote(decimal.RequireFromString("1234567890.1234567890"))
	assertDecimal(t, actual, "1234567890.1234")
}

func TestRoundQuote_SOL(t *testing.T) {
	sut := converter(t, "SOL", 9, 100000000, 100)
	actual := sut.RoundQuote(decimal.RequireFromString("1234567890.1234567890"))
	assertDecimal(t, actual, "1234567890.123")
}

// ============================================================================
// Test: rounding contract
// ============================================================================

func TestRound_IdempotentAndNonIncreasing(t *testing.T) {
	sut := converter(t, "BTC", 6, 100, 10)

	inputs := []string{"0", "0.0001", "0.00015", "1.2345", "99999.999999", "1234567890.1234567890"}
	for _, input := range inputs {
		value := decimal.RequireFromString(input)

		roundedBase := sut.RoundBase(value)
		if roundedBase.GreaterThan(value) {
			t.Errorf("RoundBase(%s) = %s exceeds input", input, roundedBase)
		}
		if !sut.RoundBase(roundedBase).Equal(roundedBase) {
			t.Errorf("RoundBase not idempotent for %s", input)
		}

		roundedQuote := sut.RoundQuote(value)
		if roundedQuote.GreaterThan(value) {
			t.Errorf("RoundQuote(%s) = %s exceeds input", input, roundedQuote)
		}
		if !sut.RoundQuote(roundedQuote).Equal(roundedQuote) {
			t.Errorf("RoundQuote not idempotent for %s", input)
		}
	}
}

func TestRound_EndToEndMarketFixture(t *testing.T) {
	// base_lot_size=100, quote_lot_size=1, 6 quote decimals.
	sut := converter(t, "BASE", 6, 100, 1)

	assertDecimal(t, sut.RoundQuote(decimal.RequireFromString("1.2345")), "1.23")
	assertDecimal(t, sut.RoundBase(decimal.RequireFromString("0.07")), "0.07")
	assertDecimal(t, sut.RoundBase(decimal.RequireFromString("0.07005")), "0.07")
	assertDecimal(t, sut.LotSize(), "0.0001")
	assertDecimal(t, sut.TickSize(), "0.01")
}

func TestBaseSizeLotsToNumber(t *testing.T) {
	sut := converter(t, "BASE", 6, 100, 1)
	assertDecimal(t, sut.BaseSizeLotsToNumber(decimal.NewFromInt(700)), "0.07")
}

// ============================================================================
// Test: raising converter
// ============================================================================

func TestRaisingConverter_Panics(t *testing.T) {
	sut := lot.NewRaisingConverter()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from raising converter")
		}
	}()
	sut.RoundBase(decimal.NewFromInt(1))
}

func TestNullConverter_IdentityOnLots(t *testing.T) {
	sut := lot.NewNullConverter()
	assertDecimal(t, sut.BaseSizeLotsToNumber(decimal.NewFromInt(42)), "42")
	assertDecimal(t, sut.QuoteLotsToNumber(decimal.NewFromInt(42)), "42")
}
