package stats

import (
	"context"
	"sort"
	"sync"
	"time"

	"perpcrank/internal/market"
)

// MemorySource keeps the snapshot series in memory with the same contract as
// the Postgres store.
type MemorySource struct {
	mu       sync.Mutex
	bySymbol map[string][]market.FundingSnapshot
}

func NewMemorySource() *MemorySource {
	return &MemorySource{bySymbol: make(map[string][]market.FundingSnapshot)}
}

func (m *MemorySource) Record(_ context.Context, symbol string, snapshots ...market.FundingSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	series := m.bySymbol[symbol]
	for _, snapshot := range snapshots {
		duplicate := false
		for _, existing := range series {
			if existing.Time.Equal(snapshot.Time) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			series = append(series, snapshot)
		}
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Time.Before(series[j].Time)
	})
	m.bySymbol[symbol] = series
	return nil
}

func (m *MemorySource) Snapshots(_ context.Context, symbol string, from, to time.Time) ([]market.FundingSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var selected []market.FundingSnapshot
	for _, snapshot := range m.bySymbol[symbol] {
		if snapshot.Time.Before(from) || snapshot.Time.After(to) {
			continue
		}
		selected = append(selected, snapshot)
	}
	return selected, nil
}
