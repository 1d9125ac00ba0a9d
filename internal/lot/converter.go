package lot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"perpcrank/internal/token"
)

// Converter scales between raw on-chain lot units and human-scaled decimal
// quantities for a base/quote instrument pair. All methods are pure; the
// integer lot arithmetic goes through QuoRem so no division ever rounds.
//
// RoundBase and RoundQuote truncate to the nearest lower lot multiple. An
// order built from a rounded value therefore never reports more size, or a
// tighter price, than is actually marketable on-chain.
type Converter struct {
	Base         token.Instrument
	BaseLotSize  decimal.Decimal
	Quote        token.Instrument
	QuoteLotSize decimal.Decimal

	raising bool
}

func NewConverter(base token.Instrument, baseLotSize decimal.Decimal, quote token.Instrument, quoteLotSize decimal.Decimal) Converter {
	return Converter{
		Base:         base,
		BaseLotSize:  baseLotSize,
		Quote:        quote,
		QuoteLotSize: quoteLotSize,
	}
}

// NewNullConverter returns a converter whose conversions are identities over
// integer lot counts. Used where values are already in final units.
func NewNullConverter() Converter {
	return NewConverter(
		token.NewInstrument("NULLBASE", "Null Base", 0),
		decimal.NewFromInt(1),
		token.NewInstrument("NULLQUOTE", "Null Quote", 0),
		decimal.NewFromInt(1),
	)
}

// NewRaisingConverter returns a converter for contexts where no lot-size
// conversion should ever happen, such as market stubs that have not been
// loaded. Calling any conversion method on it is a caller bug and panics.
func NewRaisingConverter() Converter {
	return Converter{
		Base:         token.NewInstrument("RAISINGBASE", "Raising Base", 0),
		BaseLotSize:  decimal.NewFromInt(-1),
		Quote:        token.NewInstrument("RAISINGQUOTE", "Raising Quote", 0),
		QuoteLotSize: decimal.NewFromInt(-1),
		raising:      true,
	}
}

func (c Converter) mustBeUsable(method string) {
	if c.raising {
		panic(fmt.Sprintf("lot: %s called on a raising Converter - no conversion is valid in this context", method))
	}
}

// LotSize is the human-scaled size of a single base lot.
func (c Converter) LotSize() decimal.Decimal {
	return c.BaseSizeLotsToNumber(decimal.NewFromInt(1))
}

// TickSize is the human-scaled price increment of a single quote lot.
func (c Converter) TickSize() decimal.Decimal {
	return c.PriceLotsToNumber(decimal.NewFromInt(1))
}

func (c Converter) AdjustToBaseDecimals(value decimal.Decimal) decimal.Decimal {
	c.mustBeUsable("AdjustToBaseDecimals")
	return value.Shift(c.Base.Decimals - c.Quote.Decimals)
}

func (c Converter) AdjustToQuoteDecimals(value decimal.Decimal) decimal.Decimal {
	c.mustBeUsable("AdjustToQuoteDecimals")
	return value.Shift(c.Quote.Decimals - c.Base.Decimals)
}

// PriceLotsToNumber converts a price expressed in quote lots per base lot to
// a human-scaled price.
func (c Converter) PriceLotsToNumber(priceLots decimal.Decimal) decimal.Decimal {
	c.mustBeUsable("PriceLotsToNumber")
	lotsToNative := priceLots.Mul(c.QuoteLotSize)
	price, _ := c.AdjustToBaseDecimals(lotsToNative).QuoRem(c.BaseLotSize, c.Base.Decimals+c.Quote.Decimals)
	return price
}

// PriceNumberToLots converts a human-scaled price to quote lots per base lot,
// truncated down to the nearest representable price.
func (c Converter) PriceNumberToLots(price decimal.Decimal) decimal.Decimal {
	c.mustBeUsable("PriceNumberToLots")
	numerator := price.Shift(c.Quote.Decimals).Mul(c.BaseLotSize)
	denominator := c.QuoteLotSize.Shift(c.Base.Decimals)
	lots, _ := numerator.QuoRem(denominator, 0)
	return lots
}

// BaseSizeLotsToNumber converts a raw base lot count to a human-scaled
// quantity at the base instrument's precision.
func (c Converter) BaseSizeLotsToNumber(sizeLots decimal.Decimal) decimal.Decimal {
	c.mustBeUsable("BaseSizeLotsToNumber")
	return sizeLots.Round(0).Mul(c.BaseLotSize).Shift(-c.Base.Decimals)
}

// BaseSizeNumberToLots converts a human-scaled quantity to whole base lots,
// truncated down.
func (c Converter) BaseSizeNumberToLots(size decimal.Decimal) decimal.Decimal {
	c.mustBeUsable("BaseSizeNumberToLots")
	lots, _ := size.Shift(c.Base.Decimals).QuoRem(c.BaseLotSize, 0)
	return lots
}

// QuoteLotsToNumber converts a raw quote lot count to a human-scaled value at
// the quote instrument's precision.
func (c Converter) QuoteLotsToNumber(sizeLots decimal.Decimal) decimal.Decimal {
	c.mustBeUsable("QuoteLotsToNumber")
	return sizeLots.Mul(c.QuoteLotSize).Shift(-c.Quote.Decimals)
}

// QuoteSizeNumberToLots converts a human-scaled quote value to whole quote
// lots, truncated down.
func (c Converter) QuoteSizeNumberToLots(size decimal.Decimal) decimal.Decimal {
	c.mustBeUsable("QuoteSizeNumberToLots")
	lots, _ := size.Shift(c.Quote.Decimals).QuoRem(c.QuoteLotSize, 0)
	return lots
}

// RoundBase truncates a quantity to the largest lot multiple that does not
// exceed it. Idempotent: rounding an already-rounded value is a no-op.
func (c Converter) RoundBase(quantity decimal.Decimal) decimal.Decimal {
	return c.BaseSizeLotsToNumber(c.BaseSizeNumberToLots(quantity))
}

// RoundQuote truncates a price to the largest tick multiple that does not
// exceed it.
func (c Converter) RoundQuote(price decimal.Decimal) decimal.Decimal {
	return c.PriceLotsToNumber(c.PriceNumberToLots(price))
}

func (c Converter) String() string {
	return fmt.Sprintf("LotSizeConverter %s/%s [base lot size: %s (%d decimals), quote lot size: %s (%d decimals)]",
		c.Base.Symbol, c.Quote.Symbol, c.BaseLotSize, c.Base.Decimals, c.QuoteLotSize, c.Quote.Decimals)
}
