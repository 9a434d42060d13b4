package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// OutboxSource is the slice of the postgres store the relay needs.
type OutboxSource interface {
	UnpublishedBatch(ctx context.Context, limit int) ([]OutboxRow, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// OutboxRow is one pending relay item. Payload is the JSON-encoded Entry;
// SessionID doubles as the Kafka partition key so a session's trail stays
// ordered.
type OutboxRow struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Payload   []byte
}

// Producer publishes one record to the audit topic.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// Relay drains the transactional outbox into Kafka. Rows are only marked
// published after the broker acknowledges, so a crash between the two steps
// re-sends rather than loses; consumers dedupe on entry ID.
type Relay struct {
	source   OutboxSource
	producer Producer
	logger   *slog.Logger

	interval  time.Duration
	batchSize int
}

func NewRelay(source OutboxSource, producer Producer, logger *slog.Logger, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{source: source, producer: producer, logger: logger, interval: interval, batchSize: batchSize}
}

// Run polls until ctx is cancelled. Transient failures are logged and
// retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "audit outbox relay pass failed", "error", err)
			}
		}
	}
}

func (r *Relay) drainOnce(ctx context.Context) error {
	batch, err := r.source.UnpublishedBatch(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(batch))
	for _, row := range batch {
		if err := r.producer.Produce(ctx, row.SessionID[:], row.Payload); err != nil {
			// Stop the pass here so ordering within a session holds.
			r.logger.WarnContext(ctx, "audit publish failed, will retry",
				"outbox_id", row.ID.String(), "error", err)
			break
		}
		published = append(published, row.ID)
	}
	if len(published) == 0 {
		return nil
	}
	return r.source.MarkPublished(ctx, published)
}
