// Package stats records funding snapshots per market and derives funding
// rates from the recorded series. The Postgres store is the durable backend;
// the memory source backs tests and single-process runs.
package stats

import (
	"context"
	"fmt"
	"time"

	"perpcrank/internal/lot"
	"perpcrank/internal/market"
)

// Source is a time-ordered series of funding snapshots per market symbol.
type Source interface {
	// Record appends snapshots for a symbol. Re-recording a snapshot with a
	// timestamp already present is a no-op, so retried writes stay safe.
	Record(ctx context.Context, symbol string, snapshots ...market.FundingSnapshot) error

	// Snapshots returns the snapshots observed in [from, to], oldest first.
	Snapshots(ctx context.Context, symbol string, from, to time.Time) ([]market.FundingSnapshot, error)
}

// Rate derives the funding rate for a symbol over the given window. The rate
// spans the oldest and newest recorded snapshots inside the window, so at
// least two must exist.
func Rate(ctx context.Context, source Source, symbol string, converter lot.Converter, from, to time.Time) (market.FundingRate, error) {
	snapshots, err := source.Snapshots(ctx, symbol, from, to)
	if err != nil {
		return market.FundingRate{}, fmt.Errorf("stats: loading snapshots for %s: %w", symbol, err)
	}
	if len(snapshots) < 2 {
		return market.FundingRate{}, fmt.Errorf("stats: %d snapshot(s) for %s between %s and %s, need at least 2",
			len(snapshots), symbol, from, to)
	}
	oldest := snapshots[0]
	newest := snapshots[len(snapshots)-1]
	return market.FundingRateFromStats(symbol, converter, oldest, newest), nil
}
