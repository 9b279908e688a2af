package app

import (
	"context"
	"time"

	"github.com/sweater-ventures/funnel/db"
)

// Metric keys. queue.depth and dlq.count are computed from their tables at
// read time rather than maintained as counters.
const (
	MetricEventsTotal      = "events.total"
	MetricEventsPending    = "events.pending"
	MetricEventsDelivered  = "events.delivered"
	MetricEventsFailed     = "events.failed"
	MetricWebhookDelivered = "webhook.delivered"
	MetricWebhookFailed    = "webhook.failed"
	MetricLastProcessedAt  = "last_processed_at"
)

const (
	metricWriteAttempts = 3
	metricWriteBackoff  = 50 * time.Millisecond
)

// MetricsStore wraps the metrics table with best-effort semantics: writes are
// retried a few times against racing writers, then logged and swallowed.
// Counter values are clamped at zero on decrement underflow.
type MetricsStore struct {
	db db.Querier
}

func NewMetricsStore(querier db.Querier) *MetricsStore {
	return &MetricsStore{db: querier}
}

// Add applies a delta to a counter. Never returns an error.
func (m *MetricsStore) Add(ctx context.Context, key string, delta int64) {
	var err error
	for attempt := 0; attempt < metricWriteAttempts; attempt++ {
		_, err = m.db.AddToMetric(ctx, db.AddToMetricParams{
			Key:       key,
			Delta:     delta,
			UpdatedAt: PgTime(time.Now().UTC()),
		})
		if err == nil {
			return
		}
		time.Sleep(metricWriteBackoff)
	}
	log(ctx).Error("Failed to update metric", "error", err, "key", key, "delta", delta)
}

// Inc increments a counter by one.
func (m *MetricsStore) Inc(ctx context.Context, key string) {
	m.Add(ctx, key, 1)
}

// Dec decrements a counter by one, clamped at zero.
func (m *MetricsStore) Dec(ctx context.Context, key string) {
	m.Add(ctx, key, -1)
}

// SetTime records a timestamp-valued metric. Never returns an error.
func (m *MetricsStore) SetTime(ctx context.Context, key string, t time.Time) {
	var err error
	for attempt := 0; attempt < metricWriteAttempts; attempt++ {
		err = m.db.SetMetricTime(ctx, db.SetMetricTimeParams{
			Key:       key,
			TsValue:   PgTime(t),
			UpdatedAt: PgTime(time.Now().UTC()),
		})
		if err == nil {
			return
		}
		time.Sleep(metricWriteBackoff)
	}
	log(ctx).Error("Failed to set metric timestamp", "error", err, "key", key)
}

// MetricsSnapshot is the read-side view served by the metrics endpoint.
type MetricsSnapshot struct {
	TotalEvents     int64   `json:"total_events"`
	Pending         int64   `json:"pending"`
	Delivered       int64   `json:"delivered"`
	Failed          int64   `json:"failed"`
	QueueDepth      int64   `json:"queue_depth"`
	DLQCount        int64   `json:"dlq_count"`
	LastProcessedAt *string `json:"last_processed_at"`
	ProcessingRate  float64 `json:"processing_rate"`
}

// Snapshot assembles the current counter values plus the live queue depth and
// DLQ count. processing_rate is delivered events per second of uptime.
func (m *MetricsStore) Snapshot(ctx context.Context, startedAt time.Time, dlqRetention time.Duration) (MetricsSnapshot, error) {
	keys := []string{
		MetricEventsTotal,
		MetricEventsPending,
		MetricEventsDelivered,
		MetricEventsFailed,
		MetricLastProcessedAt,
	}
	metrics, err := m.db.GetMetrics(ctx, keys)
	if err != nil {
		return MetricsSnapshot{}, WrapError(KindTransientStore, "METRICS_READ_FAILED", "could not read metrics", err)
	}

	var snapshot MetricsSnapshot
	for _, metric := range metrics {
		switch metric.Key {
		case MetricEventsTotal:
			snapshot.TotalEvents = metric.Value
		case MetricEventsPending:
			snapshot.Pending = metric.Value
		case MetricEventsDelivered:
			snapshot.Delivered = metric.Value
		case MetricEventsFailed:
			snapshot.Failed = metric.Value
		case MetricLastProcessedAt:
			if metric.TsValue.Valid {
				formatted := metric.TsValue.Time.UTC().Format(time.RFC3339Nano)
				snapshot.LastProcessedAt = &formatted
			}
		}
	}

	snapshot.QueueDepth, err = m.db.CountQueueMessages(ctx)
	if err != nil {
		return MetricsSnapshot{}, WrapError(KindTransientStore, "METRICS_READ_FAILED", "could not read queue depth", err)
	}

	cutoff := time.Now().UTC().Add(-dlqRetention)
	snapshot.DLQCount, err = m.db.CountDlqEntries(ctx, PgTime(cutoff))
	if err != nil {
		return MetricsSnapshot{}, WrapError(KindTransientStore, "METRICS_READ_FAILED", "could not read dlq count", err)
	}

	uptime := time.Since(startedAt).Seconds()
	if uptime > 0 {
		snapshot.ProcessingRate = float64(snapshot.Delivered) / uptime
	}
	return snapshot, nil
}
