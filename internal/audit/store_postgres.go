package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	txcontext "deedflow/pkg/platform/tx"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Events are written to the audit_outbox table inside the caller's
// transaction when one is in context, so a lifecycle transition and its
// audit record commit or roll back together. The outbox worker publishes
// rows to Kafka.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Action      string `json:"action"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	ActorID     string `json:"actor_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	eventID := uuid.New()

	payload := outboxPayload{
		ID:          eventID.String(),
		Timestamp:   event.Timestamp.Format(time.RFC3339Nano),
		Action:      string(event.Action),
		SubjectType: event.SubjectType,
		SubjectID:   event.SubjectID,
		ActorID:     event.ActorID,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_outbox (id, subject_type, subject_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		eventID, event.SubjectType, event.SubjectID, string(event.Action), payloadBytes, event.Timestamp,
	); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListBySubject reads back the audit trail for one subject, oldest first.
func (s *PostgresStore) ListBySubject(ctx context.Context, subjectType, subjectID string) ([]Event, error) {
	query := `
		SELECT action, subject_type, subject_id, payload, created_at
		FROM audit_outbox
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			payload []byte
		)
		if err := rows.Scan(&e.Action, &e.SubjectType, &e.SubjectID, &payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var p outboxPayload
		if err := json.Unmarshal(payload, &p); err == nil {
			e.ActorID = p.ActorID
			e.Reason = p.Reason
			e.RequestID = p.RequestID
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
