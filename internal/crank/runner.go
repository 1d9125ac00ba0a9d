// Package crank runs the per-market loop: consume event-queue snapshots from
// the feed, diff them against what was already seen, and submit
// consume-events batches for the accounts the waiting events touch.
package crank

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"perpcrank/internal/account"
	"perpcrank/internal/event"
	"perpcrank/internal/feed"
	"perpcrank/internal/instruction"
	"perpcrank/internal/market"
	"perpcrank/internal/observability"
	"perpcrank/internal/queue"
)

// RunnerConfig wires one market's runner.
type RunnerConfig struct {
	Group    market.Group
	Margin   account.MarginAccount
	Market   market.PerpMarket
	Executor instruction.Executor
	Updates  <-chan feed.AccountUpdate

	// Interval is the minimum spacing between crank submissions. Snapshots
	// arriving faster than this still feed the tracker, they just do not
	// each produce a batch.
	Interval time.Duration

	// Limit caps the accounts per consume-events instruction.
	Limit int
}

// Runner processes one market's event-queue snapshots.
//
// Not safe for concurrent use; one runner per market, fed from one channel.
type Runner struct {
	logger  zerolog.Logger
	metrics *observability.Metrics

	group      market.Group
	margin     account.MarginAccount
	perpMarket market.PerpMarket
	symbol     string
	executor   instruction.Executor
	updates    <-chan feed.AccountUpdate
	interval   time.Duration
	limit      int

	tracker   *queue.UnseenPerpEventChangesTracker
	lastLost  uint64
	lastCrank time.Time
}

func NewRunner(logger zerolog.Logger, metrics *observability.Metrics, cfg RunnerConfig) (*Runner, error) {
	if !cfg.Market.Loaded() {
		return nil, fmt.Errorf("crank: market %s is not loaded", cfg.Market.Symbol())
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("crank: market %s has no executor", cfg.Market.Symbol())
	}
	if cfg.Limit <= 0 {
		cfg.Limit = instruction.DefaultCrankLimit
	}

	symbol := cfg.Market.Symbol()
	return &Runner{
		logger:     logger.With().Str("market", symbol).Logger(),
		metrics:    metrics,
		group:      cfg.Group,
		margin:     cfg.Margin,
		perpMarket: cfg.Market,
		symbol:     symbol,
		executor:   cfg.Executor,
		updates:    cfg.Updates,
		interval:   cfg.Interval,
		limit:      cfg.Limit,
	}, nil
}

// Run consumes snapshots until the context ends or the feed closes. A
// snapshot that fails to process is logged and skipped; the queue state
// arrives again with the next snapshot.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().Int("limit", r.limit).Dur("interval", r.interval).Msg("crank runner started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-r.updates:
			if !ok {
				r.logger.Info().Msg("feed closed, crank runner stopping")
				return nil
			}
			if err := r.Process(ctx, update.Data); err != nil {
				r.logger.Error().Err(err).Msg("processing queue snapshot")
			}
		}
	}
}

// Process handles one raw event-queue account snapshot.
func (r *Runner) Process(ctx context.Context, data []byte) error {
	start := time.Now()

	q, err := queue.Decode(r.perpMarket.Converter, data)
	if err != nil {
		r.metrics.QueueDecodeErrors.WithLabelValues(r.symbol).Inc()
		return fmt.Errorf("crank: decoding queue for %s: %w", r.symbol, err)
	}
	r.metrics.QueueSnapshots.WithLabelValues(r.symbol).Inc()
	r.metrics.QueueDecodeDur.WithLabelValues(r.symbol).Observe(time.Since(start).Seconds())
	r.metrics.UnprocessedEvents.WithLabelValues(r.symbol).Set(float64(len(q.UnprocessedEvents)))

	if r.tracker == nil {
		// Events already on the queue at startup count as seen; they may
		// still need cranking below.
		r.tracker = queue.NewUnseenPerpEventChangesTracker(r.logger, q)
	} else {
		for _, e := range r.tracker.Unseen(q) {
			r.metrics.EventsSeen.WithLabelValues(r.symbol, eventLabel(e)).Inc()
		}
		if lost := r.tracker.LostEvents(); lost > r.lastLost {
			r.metrics.EventsLost.WithLabelValues(r.symbol).Add(float64(lost - r.lastLost))
			r.lastLost = lost
		}
	}

	if len(q.UnprocessedEvents) == 0 {
		return nil
	}
	if time.Since(r.lastCrank) < r.interval {
		return nil
	}
	return r.crank(ctx, q)
}

func (r *Runner) crank(ctx context.Context, q *queue.PerpEventQueue) error {
	waiting := q.AccountsToCrank()
	if len(waiting) >= r.limit {
		r.metrics.CrankThrottled.WithLabelValues(r.symbol).Inc()
	}

	self := r.margin.Address
	assembled := instruction.AssembleCrankAccounts(r.logger, waiting, &self, r.limit)
	batch := instruction.BuildConsumeEventsInstructions(
		r.perpMarket.Program, r.group, r.perpMarket, assembled, uint64(r.limit))

	signatures, err := batch.Execute(ctx, r.executor)
	if err != nil {
		r.metrics.ExecuteErrors.WithLabelValues(r.symbol).Inc()
		return fmt.Errorf("crank: submitting consume-events for %s: %w", r.symbol, err)
	}

	r.lastCrank = time.Now()
	r.metrics.CrankBatches.WithLabelValues(r.symbol).Inc()
	r.metrics.CrankAccounts.WithLabelValues(r.symbol).Observe(float64(len(assembled)))
	r.logger.Debug().
		Int("accounts", len(assembled)).
		Int("waiting_events", len(q.UnprocessedEvents)).
		Strs("signatures", signatures).
		Msg("crank batch submitted")
	return nil
}

func eventLabel(e event.PerpEvent) string {
	switch e.(type) {
	case event.FillEvent:
		return "fill"
	case event.OutEvent:
		return "out"
	case event.LiquidateEvent:
		return "liquidate"
	default:
		return "unknown"
	}
}
