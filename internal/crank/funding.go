package crank

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"perpcrank/internal/market"
	"perpcrank/internal/observability"
	"perpcrank/internal/stats"
)

// FundingRecorder samples a market's funding accumulators into the stats
// store and derives the current funding rate from the recorded series.
type FundingRecorder struct {
	logger  zerolog.Logger
	metrics *observability.Metrics

	source     stats.Source
	perpMarket market.PerpMarket
	symbol     string
	window     time.Duration
}

func NewFundingRecorder(logger zerolog.Logger, metrics *observability.Metrics, source stats.Source, perpMarket market.PerpMarket, window time.Duration) (*FundingRecorder, error) {
	if !perpMarket.Loaded() {
		return nil, fmt.Errorf("crank: market %s is not loaded", perpMarket.Symbol())
	}
	symbol := perpMarket.Symbol()
	return &FundingRecorder{
		logger:     logger.With().Str("market", symbol).Logger(),
		metrics:    metrics,
		source:     source,
		perpMarket: perpMarket,
		symbol:     symbol,
		window:     window,
	}, nil
}

// Record stores one funding snapshot built from freshly fetched market
// details and the oracle price observed alongside them.
func (f *FundingRecorder) Record(ctx context.Context, details market.PerpMarketDetails, oraclePrice decimal.Decimal, at time.Time) error {
	snapshot := market.FundingSnapshot{
		LongFunding:     details.LongFunding,
		ShortFunding:    details.ShortFunding,
		BaseOraclePrice: oraclePrice,
		OpenInterest:    details.OpenInterest,
		Time:            at,
	}
	if err := f.source.Record(ctx, f.symbol, snapshot); err != nil {
		f.metrics.StatsErrors.WithLabelValues(f.symbol, "record").Inc()
		return fmt.Errorf("crank: recording funding snapshot for %s: %w", f.symbol, err)
	}
	f.metrics.FundingSnapshotsRecorded.WithLabelValues(f.symbol).Inc()
	return nil
}

// CurrentRate derives the funding rate over the recorder's window ending
// now, updating the rate and open-interest gauges.
func (f *FundingRecorder) CurrentRate(ctx context.Context, now time.Time) (market.FundingRate, error) {
	rate, err := stats.Rate(ctx, f.source, f.symbol, f.perpMarket.Converter, now.Add(-f.window), now)
	if err != nil {
		f.metrics.StatsErrors.WithLabelValues(f.symbol, "rate").Inc()
		return market.FundingRate{}, err
	}

	f.metrics.FundingRate.WithLabelValues(f.symbol).Set(rate.Rate.InexactFloat64())
	f.metrics.FundingOpenInterest.WithLabelValues(f.symbol).Set(rate.OpenInterest.InexactFloat64())
	f.logger.Debug().
		Str("rate", rate.Rate.String()).
		Str("open_interest", rate.OpenInterest.String()).
		Msg("funding rate derived")
	return rate, nil
}
