package stats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"perpcrank/internal/market"
)

// Store persists funding snapshots in Postgres. Writes use multi-row INSERT
// with ON CONFLICT DO NOTHING: a snapshot is keyed by (symbol, observed_at),
// so replaying an already-recorded observation changes nothing.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenStore connects to Postgres and verifies the connection.
func OpenStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("stats: opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: pinging database: %w", err)
	}
	return NewStore(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the funding_stats table if it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS funding_stats (
			symbol        TEXT        NOT NULL,
			long_funding  NUMERIC     NOT NULL,
			short_funding NUMERIC     NOT NULL,
			oracle_price  NUMERIC     NOT NULL,
			open_interest NUMERIC     NOT NULL,
			observed_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (symbol, observed_at)
		)
	`)
	if err != nil {
		return fmt.Errorf("stats: ensuring schema: %w", err)
	}
	return nil
}

// Record writes the snapshots in one multi-row INSERT.
func (s *Store) Record(ctx context.Context, symbol string, snapshots ...market.FundingSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	query := `INSERT INTO funding_stats
		(symbol, long_funding, short_funding, oracle_price, open_interest, observed_at)
		VALUES `

	values := make([]string, 0, len(snapshots))
	args := make([]interface{}, 0, len(snapshots)*6)

	for i, snapshot := range snapshots {
		base := i * 6
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args,
			symbol, snapshot.LongFunding, snapshot.ShortFunding,
			snapshot.BaseOraclePrice, snapshot.OpenInterest, snapshot.Time,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (symbol, observed_at) DO NOTHING"

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("stats: recording %d snapshot(s) for %s: %w", len(snapshots), symbol, err)
	}
	return nil
}

// Snapshots returns the snapshots for a symbol in [from, to], oldest first.
func (s *Store) Snapshots(ctx context.Context, symbol string, from, to time.Time) ([]market.FundingSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT long_funding, short_funding, oracle_price, open_interest, observed_at
		FROM funding_stats
		WHERE symbol = $1 AND observed_at BETWEEN $2 AND $3
		ORDER BY observed_at ASC
	`, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("stats: querying snapshots for %s: %w", symbol, err)
	}
	defer rows.Close()

	var snapshots []market.FundingSnapshot
	for rows.Next() {
		var snapshot market.FundingSnapshot
		if err := rows.Scan(
			&snapshot.LongFunding, &snapshot.ShortFunding,
			&snapshot.BaseOraclePrice, &snapshot.OpenInterest, &snapshot.Time,
		); err != nil {
			return nil, fmt.Errorf("stats: scanning snapshot for %s: %w", symbol, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: reading snapshots for %s: %w", symbol, err)
	}
	return snapshots, nil
}

// Prune deletes snapshots observed before the cutoff, returning how many
// rows went away.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM funding_stats WHERE observed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("stats: pruning before %s: %w", cutoff, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stats: counting pruned rows: %w", err)
	}
	return deleted, nil
}
