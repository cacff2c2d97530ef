package notification

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresLedger claims checkpoints through the unique index on
// (subject_id, kind, checkpoint). ON CONFLICT DO NOTHING makes the claim a
// single atomic statement: exactly one of any number of concurrent callers
// sees a row inserted.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Record(ctx context.Context, subjectID string, kind Kind, checkpoint string) (bool, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO notification_events (subject_id, kind, checkpoint, recorded_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (subject_id, kind, checkpoint) DO NOTHING`,
		subjectID, string(kind), checkpoint,
	)
	if err != nil {
		return false, fmt.Errorf("record notification checkpoint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
