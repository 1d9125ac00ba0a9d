// Package account models a margin account's per-market perp position and its
// valuation against the group cache.
package account

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"perpcrank/internal/layout"
	"perpcrank/internal/lot"
	"perpcrank/internal/token"
)

// PerpAccount is one market's position slot inside a margin account.
// Positions are in base lots, quote values in native quote units; the
// embedded converter scales them on demand. Rebuilt wholesale from each
// account snapshot, never mutated, so valuation against any cache/price pair
// is safe from any goroutine as long as each goroutine has its own receiver.
type PerpAccount struct {
	BasePosition        decimal.Decimal
	QuotePosition       decimal.Decimal
	LongSettledFunding  decimal.Decimal
	ShortSettledFunding decimal.Decimal
	BidsQuantity        decimal.Decimal
	AsksQuantity        decimal.Decimal
	TakerBase           decimal.Decimal
	TakerQuote          decimal.Decimal
	MngoAccrued         token.InstrumentValue
	OpenOrders          PerpOpenOrders
	Converter           lot.Converter

	// BaseTokenValue is the human-scaled base holding including amounts
	// still waiting on the event queue.
	BaseTokenValue token.InstrumentValue

	// QuotePositionValue is the quote position at the quote token's scale.
	QuotePositionValue decimal.Decimal
}

// FromLayout builds the position from its decoded 96-byte slot.
func FromLayout(data layout.PerpAccountData, baseToken token.Instrument, quoteToken token.Token, openOrders PerpOpenOrders, converter lot.Converter, mngoToken token.Token) PerpAccount {
	basePosition := decimal.NewFromInt(data.BasePosition)
	takerBase := decimal.NewFromInt(data.TakerBase)

	basePositionRaw := basePosition.Add(takerBase).Mul(converter.BaseLotSize)

	return PerpAccount{
		BasePosition:        basePosition,
		QuotePosition:       data.QuotePosition,
		LongSettledFunding:  data.LongSettledFunding,
		ShortSettledFunding: data.ShortSettledFunding,
		BidsQuantity:        decimal.NewFromInt(data.BidsQuantity),
		AsksQuantity:        decimal.NewFromInt(data.AsksQuantity),
		TakerBase:           takerBase,
		TakerQuote:          decimal.NewFromInt(data.TakerQuote),
		MngoAccrued:         token.NewInstrumentValue(mngoToken.Instrument, mngoToken.ShiftToDecimals(decimal.NewFromBigInt(new(big.Int).SetUint64(data.MngoAccrued), 0))),
		OpenOrders:          openOrders,
		Converter:           converter,
		BaseTokenValue:      token.NewInstrumentValue(baseToken, baseToken.ShiftToDecimals(basePositionRaw)),
		QuotePositionValue:  quoteToken.ShiftToDecimals(data.QuotePosition),
	}
}

// Empty reports whether the slot has never traded: no position, no settled
// funding, no accrued incentive and no resting orders.
func (a PerpAccount) Empty() bool {
	return a.BasePosition.IsZero() &&
		a.QuotePosition.IsZero() &&
		a.LongSettledFunding.IsZero() &&
		a.ShortSettledFunding.IsZero() &&
		a.MngoAccrued.IsZero() &&
		a.OpenOrders.Empty()
}

// UnsettledFunding is the funding accrued since this position last settled,
// in human-scaled quote units. Longs accrue against the cache's long
// accumulator, shorts against the short one. Positive means the position is
// owed funding.
func (a PerpAccount) UnsettledFunding(cache PerpMarketCache) decimal.Decimal {
	var unsettled decimal.Decimal
	if a.BasePosition.IsNegative() {
		unsettled = a.BasePosition.Mul(cache.ShortFunding.Sub(a.ShortSettledFunding))
	} else {
		unsettled = a.BasePosition.Mul(cache.LongFunding.Sub(a.LongSettledFunding))
	}
	return a.Converter.Quote.ShiftToDecimals(unsettled).Neg()
}

// quotePositionWithFunding is the quote position plus unsettled funding, at
// the quote token's scale.
func (a PerpAccount) quotePositionWithFunding(cache PerpMarketCache) decimal.Decimal {
	return a.Converter.Quote.ShiftToDecimals(a.QuotePosition).Add(a.UnsettledFunding(cache))
}

// baseValueAt is the base position valued at the given human-scaled price.
func (a PerpAccount) baseValueAt(price decimal.Decimal) decimal.Decimal {
	return a.Converter.BaseSizeLotsToNumber(a.BasePosition).Mul(price)
}

// AssetValue sums the position's positive parts: a long base holding valued
// at price, and the quote position with funding when it is positive.
func (a PerpAccount) AssetValue(cache PerpMarketCache, price decimal.Decimal) decimal.Decimal {
	value := decimal.Zero
	if a.BasePosition.IsPositive() {
		value = a.baseValueAt(price)
	}
	if quote := a.quotePositionWithFunding(cache); quote.IsPositive() {
		value = value.Add(quote)
	}
	return value
}

// LiabilityValue sums the position's negative parts: a short base holding
// valued at price, and the quote position with funding when it is negative.
func (a PerpAccount) LiabilityValue(cache PerpMarketCache, price decimal.Decimal) decimal.Decimal {
	value := decimal.Zero
	if a.BasePosition.IsNegative() {
		value = a.baseValueAt(price)
	}
	if quote := a.quotePositionWithFunding(cache); quote.IsNegative() {
		value = value.Add(quote)
	}
	return value
}

// CurrentValue is the position's net worth at the given price. It always
// equals AssetValue plus LiabilityValue for the same cache and price.
func (a PerpAccount) CurrentValue(cache PerpMarketCache, price decimal.Decimal) decimal.Decimal {
	return a.baseValueAt(price).Add(a.quotePositionWithFunding(cache))
}

func (a PerpAccount) String() string {
	if a.Empty() {
		return "PerpAccount (empty)"
	}
	return fmt.Sprintf("PerpAccount [base: %s lots, quote: %s, mngo accrued: %s, %s]",
		a.BasePosition, a.QuotePositionValue, a.MngoAccrued, a.OpenOrders)
}
