package token

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Instrument describes a tradeable asset: a symbol and the decimal precision
// its raw on-chain quantities are expressed in. Instruments are immutable and
// shared read-only by every component that needs to scale values.
type Instrument struct {
	Symbol   string
	Name     string
	Decimals int32
}

func NewInstrument(symbol string, name string, decimals int32) Instrument {
	return Instrument{
		Symbol:   strings.ToUpper(symbol),
		Name:     name,
		Decimals: decimals,
	}
}

// ShiftToDecimals converts a raw on-chain integer quantity to the
// instrument's human scale. Exact: only the decimal exponent moves.
func (i Instrument) ShiftToDecimals(value decimal.Decimal) decimal.Decimal {
	return value.Shift(-i.Decimals)
}

// ShiftToNative converts a human-scaled quantity back to raw on-chain units.
func (i Instrument) ShiftToNative(value decimal.Decimal) decimal.Decimal {
	return value.Shift(i.Decimals).Round(0)
}

func (i Instrument) Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(i.Decimals)
}

func (i Instrument) SymbolMatches(symbol string) bool {
	return strings.EqualFold(i.Symbol, symbol)
}

func (i Instrument) String() string {
	return fmt.Sprintf("Instrument[%s] '%s' (%d decimals)", i.Symbol, i.Name, i.Decimals)
}

// Token is an Instrument with an on-chain mint address.
type Token struct {
	Instrument
	Mint solana.PublicKey
}

func NewToken(symbol string, name string, decimals int32, mint solana.PublicKey) Token {
	return Token{
		Instrument: NewInstrument(symbol, name, decimals),
		Mint:       mint,
	}
}

func (t Token) String() string {
	return fmt.Sprintf("Token[%s] '%s' %s (%d decimals)", t.Symbol, t.Name, t.Mint, t.Decimals)
}

// FindBySymbol returns the token with the given symbol, or an error if it is
// missing or ambiguous.
func FindBySymbol(values []Token, symbol string) (Token, error) {
	var found []Token
	for _, value := range values {
		if value.SymbolMatches(symbol) {
			found = append(found, value)
		}
	}
	switch len(found) {
	case 0:
		return Token{}, fmt.Errorf("token %q not found", symbol)
	case 1:
		return found[0], nil
	default:
		return Token{}, fmt.Errorf("token %q matched %d tokens", symbol, len(found))
	}
}
