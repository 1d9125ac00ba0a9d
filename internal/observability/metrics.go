package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the crank engine. Market labels
// carry the market symbol, e.g. "BTC-PERP".
type Metrics struct {
	// --- Event queue ---
	QueueSnapshots    *prometheus.CounterVec
	QueueDecodeErrors *prometheus.CounterVec
	QueueDecodeDur    *prometheus.HistogramVec
	EventsSeen        *prometheus.CounterVec
	EventsLost        *prometheus.CounterVec
	UnprocessedEvents *prometheus.GaugeVec

	// --- Crank ---
	CrankBatches   *prometheus.CounterVec
	CrankAccounts  *prometheus.HistogramVec
	CrankThrottled *prometheus.CounterVec
	ExecuteErrors  *prometheus.CounterVec

	// --- Feed & backpressure ---
	FeedMessages       *prometheus.CounterVec
	FeedDrops          *prometheus.CounterVec
	ChannelSize        *prometheus.GaugeVec
	ChannelCapacity    *prometheus.GaugeVec
	ChannelUtilization *prometheus.GaugeVec

	// --- Funding stats ---
	FundingSnapshotsRecorded *prometheus.CounterVec
	FundingRate              *prometheus.GaugeVec
	FundingOpenInterest      *prometheus.GaugeVec
	StatsErrors              *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	decodeBuckets := []float64{
		0.00001, 0.000025, 0.00005, 0.0001, 0.00025,
		0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		// Event queue
		QueueSnapshots: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_queue_snapshots_total",
			Help: "Event queue account snapshots decoded",
		}, []string{"market"}),

		QueueDecodeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_queue_decode_errors_total",
			Help: "Event queue snapshots that failed to decode",
		}, []string{"market"}),

		QueueDecodeDur: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crank_queue_decode_duration_seconds",
			Help:    "Time to decode one event queue snapshot",
			Buckets: decodeBuckets,
		}, []string{"market"}),

		EventsSeen: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_events_seen_total",
			Help: "Events seen for the first time",
		}, []string{"market", "event_type"}),

		EventsLost: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_events_lost_total",
			Help: "Events overwritten in the ring before any snapshot showed them",
		}, []string{"market"}),

		UnprocessedEvents: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crank_unprocessed_events",
			Help: "Events waiting on the queue in the latest snapshot",
		}, []string{"market"}),

		// Crank
		CrankBatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_batches_total",
			Help: "Consume-events batches submitted",
		}, []string{"market"}),

		CrankAccounts: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crank_accounts_per_batch",
			Help:    "Accounts carried per consume-events instruction",
			Buckets: []float64{1, 2, 4, 8, 16, 24, 32},
		}, []string{"market"}),

		CrankThrottled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_throttled_total",
			Help: "Batches where waiting accounts exceeded the crank limit",
		}, []string{"market"}),

		ExecuteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_execute_errors_total",
			Help: "Batch submissions that returned an error",
		}, []string{"market"}),

		// Feed & backpressure
		FeedMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_feed_messages_total",
			Help: "Account update messages received from the feed",
		}, []string{"market"}),

		FeedDrops: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_feed_drops_total",
			Help: "Feed messages dropped because the runner was behind",
		}, []string{"market"}),

		ChannelSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crank_channel_size",
			Help: "Current items in channel",
		}, []string{"name"}),

		ChannelCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crank_channel_capacity",
			Help: "Channel capacity (constant)",
		}, []string{"name"}),

		ChannelUtilization: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crank_channel_utilization",
			Help: "Channel size / capacity (0.0-1.0)",
		}, []string{"name"}),

		// Funding stats
		FundingSnapshotsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_funding_snapshots_recorded_total",
			Help: "Funding snapshots written to the stats store",
		}, []string{"market"}),

		FundingRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crank_funding_rate",
			Help: "Latest derived funding rate",
		}, []string{"market"}),

		FundingOpenInterest: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crank_funding_open_interest",
			Help: "Open interest at the latest funding snapshot, in base units",
		}, []string{"market"}),

		StatsErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crank_stats_errors_total",
			Help: "Stats store operations that returned an error",
		}, []string{"market", "operation"}),
	}
}

// SetChannelMetrics updates channel utilization metrics.
func (m *Metrics) SetChannelMetrics(name string, size, capacity int) {
	m.ChannelSize.WithLabelValues(name).Set(float64(size))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
	if capacity > 0 {
		m.ChannelUtilization.WithLabelValues(name).Set(float64(size) / float64(capacity))
	}
}
