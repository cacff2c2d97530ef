package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"deedflow/internal/report/models"
	id "deedflow/pkg/domain"
	"deedflow/pkg/platform/sentinel"
)

// PostgresStore persists reports in the reports table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reportColumns = `
	id, submission_id, status, filing_deadline, receipt_id, rejection_reason,
	filed_at, resolved_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, rep *models.Report) error {
	// The partial unique index on submission_id (non-terminal statuses)
	// enforces single open report per submission.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, submission_id, status, filing_deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(rep.ID), uuid.UUID(rep.SubmissionID), string(rep.Status),
		rep.FilingDeadline, rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, repID id.ReportID) (*models.Report, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(repID))
}

func (s *PostgresStore) FindBySubmission(ctx context.Context, subID id.SubmissionID) (*models.Report, error) {
	return s.findOne(ctx, `WHERE submission_id = $1 ORDER BY created_at DESC LIMIT 1`, uuid.UUID(subID))
}

func (s *PostgresStore) FindByReceipt(ctx context.Context, receipt id.ReceiptID) (*models.Report, error) {
	return s.findOne(ctx, `WHERE receipt_id = $1`, string(receipt))
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, repID id.ReportID, from, to models.Status, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		uuid.UUID(repID), string(from), string(to), at,
	)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	return staleUnlessMatched(res)
}

func (s *PostgresStore) MarkFiled(ctx context.Context, repID id.ReportID, receipt id.ReceiptID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET status = $2, receipt_id = $3, filed_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5`,
		uuid.UUID(repID), string(models.StatusFiled), string(receipt), at, string(models.StatusReadyToFile),
	)
	if err != nil {
		return fmt.Errorf("mark report filed: %w", err)
	}
	return staleUnlessMatched(res)
}

func (s *PostgresStore) ApplyOutcome(ctx context.Context, repID id.ReportID, to models.Status, reason string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET status = $2, rejection_reason = $3, resolved_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5`,
		uuid.UUID(repID), string(to), reason, at, string(models.StatusFiled),
	)
	if err != nil {
		return fmt.Errorf("apply report outcome: %w", err)
	}
	return staleUnlessMatched(res)
}

func (s *PostgresStore) ListOpenWithDeadlines(ctx context.Context) ([]*models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE status IN ($1, $2)
		ORDER BY filing_deadline ASC`,
		string(models.StatusCollecting), string(models.StatusReadyToFile),
	)
	if err != nil {
		return nil, fmt.Errorf("list open reports: %w", err)
	}
	defer rows.Close()

	var out []*models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate open reports: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("select report: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("select report: %w", err)
		}
		return nil, sentinel.ErrNotFound
	}
	return scanReport(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		rep        models.Report
		repID      uuid.UUID
		subID      uuid.UUID
		receipt    sql.NullString
		rejection  sql.NullString
		filedAt    sql.NullTime
		resolvedAt sql.NullTime
	)
	err := row.Scan(
		&repID, &subID, &rep.Status, &rep.FilingDeadline, &receipt, &rejection,
		&filedAt, &resolvedAt, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	rep.ID = id.ReportID(repID)
	rep.SubmissionID = id.SubmissionID(subID)
	rep.ReceiptID = id.ReceiptID(receipt.String)
	rep.RejectionReason = rejection.String
	rep.FiledAt = filedAt.Time
	rep.ResolvedAt = resolvedAt.Time
	return &rep, nil
}

func staleUnlessMatched(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrStaleState
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
