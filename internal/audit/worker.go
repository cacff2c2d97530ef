package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// OutboxWorker drains the audit outbox to Kafka. It claims a batch of
// unpublished rows, produces them, and marks them published; rows stay in
// the table for the ListBySubject audit trail. At-least-once delivery:
// consumers must tolerate the occasional duplicate keyed by event id.
type OutboxWorker struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func NewOutboxWorker(db *sql.DB, client *kgo.Client, topic string, logger *slog.Logger) *OutboxWorker {
	return &OutboxWorker{
		db:       db,
		client:   client,
		topic:    topic,
		logger:   logger,
		interval: 2 * time.Second,
		batch:    100,
	}
}

// Run drains the outbox until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.publishBatch(ctx); err != nil {
				// Transient broker trouble: the next tick retries. Rows stay
				// unpublished until produce succeeds.
				w.logger.WarnContext(ctx, "audit outbox publish failed", "error", err)
			}
		}
	}
}

func (w *OutboxWorker) publishBatch(ctx context.Context) error {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, w.batch)
	if err != nil {
		return fmt.Errorf("claim outbox rows: %w", err)
	}
	defer rows.Close()

	type row struct {
		id      string
		payload []byte
	}
	var claimed []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		claimed = append(claimed, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range claimed {
		record := &kgo.Record{Topic: w.topic, Key: []byte(r.id), Value: r.payload}
		if err := w.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce audit event %s: %w", r.id, err)
		}
		if _, err := w.db.ExecContext(ctx,
			`UPDATE audit_outbox SET published_at = NOW() WHERE id = $1`, r.id); err != nil {
			return fmt.Errorf("mark outbox row published: %w", err)
		}
	}
	return nil
}
