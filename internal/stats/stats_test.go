package stats_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"perpcrank/internal/lot"
	"perpcrank/internal/market"
	"perpcrank/internal/stats"
	"perpcrank/internal/token"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func testConverter() lot.Converter {
	base := token.NewInstrument("BTC", "Bitcoin", 6)
	quote := token.NewInstrument("USDC", "USD Coin", 6)
	return lot.NewConverter(base, decimal.NewFromInt(100), quote, decimal.NewFromInt(10))
}

func snapshotAt(at time.Time, longFunding, shortFunding string) market.FundingSnapshot {
	return market.FundingSnapshot{
		LongFunding:     dec(longFunding),
		ShortFunding:    dec(shortFunding),
		BaseOraclePrice: dec("50000"),
		OpenInterest:    dec("4200"),
		Time:            at,
	}
}

// ============================================================================
// Test: memory source
// ============================================================================

func TestMemorySource_OrdersAndDedups(t *testing.T) {
	ctx := context.Background()
	source := stats.NewMemorySource()

	t1 := time.Unix(1700000000, 0)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	// Recorded out of order, with t2 recorded twice.
	if err := source.Record(ctx, "BTC-PERP", snapshotAt(t3, "300", "300")); err != nil {
		t.Fatal(err)
	}
	if err := source.Record(ctx, "BTC-PERP",
		snapshotAt(t1, "100", "200"),
		snapshotAt(t2, "250", "250"),
		snapshotAt(t2, "999", "999"),
	); err != nil {
		t.Fatal(err)
	}

	snapshots, err := source.Snapshots(ctx, "BTC-PERP", t1, t3)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snapshots))
	}
	for i, expected := range []time.Time{t1, t2, t3} {
		if !snapshots[i].Time.Equal(expected) {
			t.Errorf("position %d: got %s, want %s", i, snapshots[i].Time, expected)
		}
	}
	// The first record at t2 wins.
	if !snapshots[1].LongFunding.Equal(dec("250")) {
		t.Errorf("duplicate timestamp overwrote the original: %s", snapshots[1].LongFunding)
	}
}

func TestMemorySource_WindowAndSymbolFiltering(t *testing.T) {
	ctx := context.Background()
	source := stats.NewMemorySource()

	t1 := time.Unix(1700000000, 0)
	t2 := t1.Add(time.Hour)
	if err := source.Record(ctx, "BTC-PERP", snapshotAt(t1, "1", "1"), snapshotAt(t2, "2", "2")); err != nil {
		t.Fatal(err)
	}
	if err := source.Record(ctx, "SOL-PERP", snapshotAt(t1, "9", "9")); err != nil {
		t.Fatal(err)
	}

	inWindow, err := source.Snapshots(ctx, "BTC-PERP", t1, t1)
	if err != nil {
		t.Fatal(err)
	}
	if len(inWindow) != 1 || !inWindow[0].Time.Equal(t1) {
		t.Errorf("window [t1, t1]: got %d snapshots", len(inWindow))
	}

	other, err := source.Snapshots(ctx, "ETH-PERP", t1, t2)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("unknown symbol: got %d snapshots", len(other))
	}
}

// ============================================================================
// Test: rate derivation
// ============================================================================

func TestRate_SpansOldestToNewest(t *testing.T) {
	ctx := context.Background()
	source := stats.NewMemorySource()

	t1 := time.Unix(1700000000, 0)
	t2 := t1.Add(30 * time.Minute)
	t3 := t1.Add(time.Hour)

	// The middle snapshot must not affect the rate; only the endpoints do.
	if err := source.Record(ctx, "BTC-PERP",
		snapshotAt(t1, "100", "200"),
		snapshotAt(t2, "777", "-777"),
		snapshotAt(t3, "400", "200"),
	); err != nil {
		t.Fatal(err)
	}

	rate, err := stats.Rate(ctx, source, "BTC-PERP", testConverter(), t1, t3)
	if err != nil {
		t.Fatal(err)
	}
	// Mid funding moves 150 native quote per lot over the window; one base
	// lot at 50000 is worth 5 quote.
	if !rate.Rate.Equal(dec("0.00003")) {
		t.Errorf("rate: got %s, want 0.00003", rate.Rate)
	}
	if !rate.From.Equal(t1) || !rate.To.Equal(t3) {
		t.Errorf("period: got %s to %s", rate.From, rate.To)
	}
}

func TestRate_NeedsTwoSnapshots(t *testing.T) {
	ctx := context.Background()
	source := stats.NewMemorySource()
	t1 := time.Unix(1700000000, 0)

	if _, err := stats.Rate(ctx, source, "BTC-PERP", testConverter(), t1, t1.Add(time.Hour)); err == nil {
		t.Error("expected an error with no snapshots")
	}

	if err := source.Record(ctx, "BTC-PERP", snapshotAt(t1, "1", "1")); err != nil {
		t.Fatal(err)
	}
	if _, err := stats.Rate(ctx, source, "BTC-PERP", testConverter(), t1, t1.Add(time.Hour)); err == nil {
		t.Error("expected an error with a single snapshot")
	}
}

// ============================================================================
// Test: Postgres store (integration)
// ============================================================================

func TestStore_RoundTrip(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("set INTEGRATION_TEST=1 and STATS_DATABASE_URL to run against Postgres")
	}
	databaseURL := os.Getenv("STATS_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("STATS_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := stats.OpenStore(ctx, databaseURL)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}

	symbol := "TEST-PERP"
	t1 := time.Unix(1700000000, 0).UTC()
	t2 := t1.Add(time.Hour)

	if err := store.Record(ctx, symbol, snapshotAt(t1, "100", "200"), snapshotAt(t2, "400", "200")); err != nil {
		t.Fatal(err)
	}
	// Replaying the same observation must not duplicate it.
	if err := store.Record(ctx, symbol, snapshotAt(t1, "100", "200")); err != nil {
		t.Fatal(err)
	}

	snapshots, err := store.Snapshots(ctx, symbol, t1, t2)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}
	if !snapshots[0].LongFunding.Equal(dec("100")) || !snapshots[1].LongFunding.Equal(dec("400")) {
		t.Errorf("snapshots out of order or corrupted: %v", snapshots)
	}

	rate, err := stats.Rate(ctx, store, symbol, testConverter(), t1, t2)
	if err != nil {
		t.Fatal(err)
	}
	if !rate.Rate.Equal(dec("0.00003")) {
		t.Errorf("rate: got %s, want 0.00003", rate.Rate)
	}

	if _, err := store.Prune(ctx, t2.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
}
