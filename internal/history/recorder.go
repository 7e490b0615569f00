package history

import (
	"context"
	"log/slog"
	"time"

	"SLH-Bot/internal/observability/metrics"
	"SLH-Bot/pkg/logger"
)

// QueueRecorder publishes events to a queue. RecordEvent returns quickly
// even when the queue is unavailable; the event is then dropped and logged.
type QueueRecorder struct {
	producer Producer
	timeout  time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// RecorderOption customises a QueueRecorder.
type RecorderOption func(*QueueRecorder)

// WithPublishTimeout bounds a single publish.
func WithPublishTimeout(d time.Duration) RecorderOption {
	return func(r *QueueRecorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRecorderClock replaces time.Now.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *QueueRecorder) { r.now = now }
}

// NewQueueRecorder builds a recorder on producer.
func NewQueueRecorder(producer Producer, opts ...RecorderOption) *QueueRecorder {
	r := &QueueRecorder{
		producer: producer,
		timeout:  2 * time.Second,
		now:      time.Now,
		log:      logger.Named("history"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordEvent enqueues an event for userID.
func (r *QueueRecorder) RecordEvent(ctx context.Context, userID int64, description string) error {
	event := NewEvent(userID, description, r.now())
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.producer.Publish(ctx, event); err != nil {
		metrics.ObserveHistory("dropped")
		r.log.WarnContext(ctx, "history event dropped",
			slog.String("event_id", event.ID),
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		return err
	}
	metrics.ObserveHistory("enqueued")
	return nil
}
