package market_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"perpcrank/internal/layout"
	"perpcrank/internal/lot"
	"perpcrank/internal/market"
	"perpcrank/internal/token"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertDecimal(t *testing.T, actual decimal.Decimal, expected string) {
	t.Helper()
	if !actual.Equal(dec(expected)) {
		t.Errorf("got %s, want %s", actual, expected)
	}
}

var (
	programKey = solana.MustPublicKeyFromBase58("9BVcYqEQxyccuwznvxXqDkSJFavvTyheiTYk231T1A8S")
	marketKey  = solana.MustPublicKeyFromBase58("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
)

func testInstruments() (token.Instrument, token.Token, token.Token) {
	base := token.NewInstrument("BTC", "Bitcoin", 6)
	quote := token.NewToken("USDC", "USD Coin", 6, solana.PublicKey{})
	mngo := token.NewToken("MNGO", "Mango", 6, solana.PublicKey{})
	return base, quote, mngo
}

func testDetails() market.PerpMarketDetails {
	_, _, mngo := testInstruments()
	return market.DetailsFromLayout(marketKey, layout.PerpMarketData{
		QuoteLotSize: 10,
		BaseLotSize:  100,
		OpenInterest: 4200,
		SeqNum:       7,
		LiquidityMiningInfo: layout.LiquidityMiningInfoData{
			TargetPeriodLength: 86400,
			MngoLeft:           500000,
			MngoPerPeriod:      1000000,
		},
	}, mngo)
}

// ============================================================================
// Test: details
// ============================================================================

func TestDetailsFromLayout(t *testing.T) {
	details := testDetails()

	assertDecimal(t, details.QuoteLotSize, "10")
	assertDecimal(t, details.BaseLotSize, "100")
	assertDecimal(t, details.OpenInterest, "4200")
	if details.LiquidityMiningInfo.TargetPeriodLength != 24*time.Hour {
		t.Errorf("target period: got %s", details.LiquidityMiningInfo.TargetPeriodLength)
	}
	assertDecimal(t, details.LiquidityMiningInfo.MngoLeft.Value, "0.5")
	assertDecimal(t, details.LiquidityMiningInfo.MngoPerPeriod.Value, "1")
}

func TestDecodeDetails_ShortBuffer(t *testing.T) {
	_, _, mngo := testInstruments()
	if _, err := market.DecodeDetails(marketKey, make([]byte, 10), mngo); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

// ============================================================================
// Test: stub vs loaded
// ============================================================================

func TestPerpMarketStub_PanicsOnDetails(t *testing.T) {
	base, quote, _ := testInstruments()
	stub := market.NewPerpMarketStub(programKey, marketKey, base, quote)

	if stub.Loaded() {
		t.Error("stub should not be loaded")
	}
	if stub.Symbol() != "BTC-PERP" {
		t.Errorf("symbol: got %s", stub.Symbol())
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from Details() on a stub")
		}
	}()
	stub.Details()
}

func TestPerpMarketStub_ConverterPanics(t *testing.T) {
	base, quote, _ := testInstruments()
	stub := market.NewPerpMarketStub(programKey, marketKey, base, quote)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from stub converter")
		}
	}()
	stub.Converter.RoundBase(decimal.NewFromInt(1))
}

func TestPerpMarketLoad(t *testing.T) {
	base, quote, _ := testInstruments()
	loaded := market.NewPerpMarketStub(programKey, marketKey, base, quote).Load(testDetails())

	if !loaded.Loaded() {
		t.Fatal("market should be loaded")
	}
	assertDecimal(t, loaded.Converter.LotSize(), "0.0001")
	assertDecimal(t, loaded.Converter.TickSize(), "0.1")
	if !loaded.EventQueueAddress().IsZero() {
		t.Errorf("event queue: got %s", loaded.EventQueueAddress())
	}
}

// ============================================================================
// Test: funding rate
// ============================================================================

func testConverter() lot.Converter {
	base, quote, _ := testInstruments()
	return lot.NewConverter(base, decimal.NewFromInt(100), quote.Instrument, decimal.NewFromInt(10))
}

func TestFundingRateFromStats(t *testing.T) {
	oldest := market.FundingSnapshot{
		LongFunding:     dec("100"),
		ShortFunding:    dec("200"),
		BaseOraclePrice: dec("49000"),
		OpenInterest:    dec("4000"),
		Time:            time.Unix(1700000000, 0),
	}
	newest := market.FundingSnapshot{
		LongFunding:     dec("400"),
		ShortFunding:    dec("200"),
		BaseOraclePrice: dec("50000"),
		OpenInterest:    dec("4200"),
		Time:            time.Unix(1700003600, 0),
	}

	rate := market.FundingRateFromStats("BTC-PERP", testConverter(), oldest, newest)

	// Mid funding moves 150 native quote per lot; 0.00015 at quote scale.
	// One base lot at the newest oracle price is worth 5 quote.
	assertDecimal(t, rate.Rate, "0.00003")
	assertDecimal(t, rate.OraclePrice, "50000")
	// 4200 lots of open interest is 0.42 base, halved for pair counting.
	assertDecimal(t, rate.OpenInterest, "0.21")
	if !rate.From.Equal(oldest.Time) || !rate.To.Equal(newest.Time) {
		t.Errorf("period: got %s to %s", rate.From, rate.To)
	}
}

func TestFundingRateFromStats_UnchangedAccumulatorsIsZero(t *testing.T) {
	snapshot := market.FundingSnapshot{
		LongFunding:     dec("123.456"),
		ShortFunding:    dec("-78.9"),
		BaseOraclePrice: dec("50000"),
		OpenInterest:    dec("4200"),
		Time:            time.Unix(1700000000, 0),
	}
	later := snapshot
	later.Time = time.Unix(1700003600, 0)

	rate := market.FundingRateFromStats("BTC-PERP", testConverter(), snapshot, later)

	if !rate.Rate.IsZero() {
		t.Errorf("rate: got %s, want 0", rate.Rate)
	}
	assertDecimal(t, rate.OpenInterest, "0.21")
}
