package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"perpcrank/internal/lot"
)

// fundingRatePlaces bounds the one division in the rate calculation.
// Everything before it is exact.
const fundingRatePlaces = 20

// FundingSnapshot is one row of the market's funding statistics series.
// Funding accumulators are native quote per base lot; open interest is in
// base lots.
type FundingSnapshot struct {
	LongFunding     decimal.Decimal
	ShortFunding    decimal.Decimal
	BaseOraclePrice decimal.Decimal
	OpenInterest    decimal.Decimal
	Time            time.Time
}

// midFunding averages the long and short accumulators.
func (s FundingSnapshot) midFunding() decimal.Decimal {
	return s.LongFunding.Add(s.ShortFunding).Div(decimal.NewFromInt(2))
}

// FundingRate is the externally reportable funding figure for one period.
type FundingRate struct {
	Symbol       string
	Rate         decimal.Decimal
	OraclePrice  decimal.Decimal
	OpenInterest decimal.Decimal
	From         time.Time
	To           time.Time
}

// FundingRateFromStats derives the rate between two time-ordered snapshots.
// The accumulator difference is taken at native scale and shifted to quote
// decimals only afterwards; shifting the operands first would discard the
// low digits the subtraction depends on. Open interest is halved because
// every matched contract pair counts once on each side.
func FundingRateFromStats(symbol string, converter lot.Converter, oldest, newest FundingSnapshot) FundingRate {
	fundingDifference := newest.midFunding().Sub(oldest.midFunding())
	fundingInQuote := converter.Quote.ShiftToDecimals(fundingDifference)

	basePriceInBaseLots := newest.BaseOraclePrice.Mul(converter.LotSize())
	rate := fundingInQuote.DivRound(basePriceInBaseLots, fundingRatePlaces)

	openInterest := converter.BaseSizeLotsToNumber(newest.OpenInterest).Div(decimal.NewFromInt(2))

	return FundingRate{
		Symbol:       symbol,
		Rate:         rate,
		OraclePrice:  newest.BaseOraclePrice,
		OpenInterest: openInterest,
		From:         oldest.Time,
		To:           newest.Time,
	}
}

func (r FundingRate) String() string {
	return fmt.Sprintf("FundingRate %s %s, open interest: %s from: %s to %s",
		r.Symbol, r.Rate, r.OpenInterest, r.From, r.To)
}
