// Package feed delivers event-queue account snapshots from NATS to the
// crank runners. An account publisher (typically a chain-watching sidecar)
// writes the raw account bytes to one subject per market; each runner
// consumes its market's subject through a bounded channel.
package feed

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"perpcrank/internal/observability"
)

// Subject returns the NATS subject carrying event-queue snapshots for a
// market symbol, e.g. "perp.accounts.btc-perp.event_queue".
func Subject(symbol string) string {
	return fmt.Sprintf("perp.accounts.%s.event_queue", strings.ToLower(symbol))
}

// PriceSubject returns the subject carrying oracle price updates for a
// market symbol. Payloads are decimal strings.
func PriceSubject(symbol string) string {
	return fmt.Sprintf("perp.accounts.%s.oracle_price", strings.ToLower(symbol))
}

// AccountUpdate is one raw account snapshot off the wire.
type AccountUpdate struct {
	Subject  string
	Data     []byte
	Received time.Time
}

// ConnectNATS establishes a NATS connection with endless reconnects.
func ConnectNATS(logger zerolog.Logger, url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info().Str("url", conn.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("feed: connecting to nats: %w", err)
	}
	return conn, nil
}

// QueueFeed is a bounded subscription to one market's event-queue subject.
// Snapshots are full states rather than deltas, so when the consumer falls
// behind the oldest buffered update is dropped to make room for the newest.
type QueueFeed struct {
	logger  zerolog.Logger
	metrics *observability.Metrics
	symbol  string
	subject string

	updates      chan AccountUpdate
	subscription *nats.Subscription

	dropped atomic.Uint64

	// mu serializes deliveries against Close so the handler never sends
	// on a closed channel.
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// Subscribe opens a feed for one market symbol with the given buffer size.
func Subscribe(logger zerolog.Logger, metrics *observability.Metrics, conn *nats.Conn, symbol string, buffer int) (*QueueFeed, error) {
	if buffer < 1 {
		buffer = 1
	}
	f := &QueueFeed{
		logger:  logger.With().Str("market", symbol).Logger(),
		metrics: metrics,
		symbol:  symbol,
		subject: Subject(symbol),
		updates: make(chan AccountUpdate, buffer),
	}

	subscription, err := conn.Subscribe(f.subject, f.handle)
	if err != nil {
		return nil, fmt.Errorf("feed: subscribing to %s: %w", f.subject, err)
	}
	f.subscription = subscription

	f.logger.Info().Str("subject", f.subject).Int("buffer", buffer).Msg("subscribed to event queue feed")
	return f, nil
}

func (f *QueueFeed) handle(msg *nats.Msg) {
	update := AccountUpdate{
		Subject:  msg.Subject,
		Data:     msg.Data,
		Received: time.Now(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.metrics.FeedMessages.WithLabelValues(f.symbol).Inc()

	for {
		select {
		case f.updates <- update:
			f.metrics.SetChannelMetrics(f.subject, len(f.updates), cap(f.updates))
			return
		default:
		}
		select {
		case <-f.updates:
			f.dropped.Add(1)
			f.metrics.FeedDrops.WithLabelValues(f.symbol).Inc()
			f.logger.Debug().Str("subject", f.subject).Msg("dropped stale queue snapshot")
		default:
		}
	}
}

// Updates is the channel of buffered snapshots, newest-biased.
func (f *QueueFeed) Updates() <-chan AccountUpdate {
	return f.updates
}

// Dropped reports how many buffered snapshots were discarded because the
// consumer was behind.
func (f *QueueFeed) Dropped() uint64 {
	return f.dropped.Load()
}

// Close unsubscribes and closes the update channel. Unsubscribe stops new
// dispatches but not a callback already running, so the channel is only
// closed once the handler lock is held: in-flight deliveries finish first
// and later ones see the closed flag and return.
func (f *QueueFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		if f.subscription != nil {
			err = f.subscription.Unsubscribe()
		}
		f.mu.Lock()
		f.closed = true
		close(f.updates)
		f.mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("feed: unsubscribing from %s: %w", f.subject, err)
	}
	return nil
}
