package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"deedflow/internal/submission/models"
	id "deedflow/pkg/domain"
	"deedflow/pkg/platform/sentinel"
)

// PostgresStore persists submissions in the submissions and
// submission_determinations tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, sub *models.Submission) error {
	selections, err := json.Marshal(sub.Attributes.ExemptionSelections)
	if err != nil {
		return fmt.Errorf("marshal exemption selections: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (
			id, property_class, financing, regulated_lender, buyer_form,
			exemption_selections, closing_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(sub.ID), string(sub.Attributes.PropertyClass), string(sub.Attributes.Financing),
		sub.Attributes.RegulatedLender, string(sub.Attributes.BuyerForm),
		selections, sub.ClosingDate, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, subID id.SubmissionID) (*models.Submission, error) {
	var (
		sub        models.Submission
		rawID      uuid.UUID
		selections []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, property_class, financing, regulated_lender, buyer_form,
		       exemption_selections, closing_date, created_at
		FROM submissions
		WHERE id = $1`,
		uuid.UUID(subID),
	).Scan(
		&rawID, &sub.Attributes.PropertyClass, &sub.Attributes.Financing,
		&sub.Attributes.RegulatedLender, &sub.Attributes.BuyerForm,
		&selections, &sub.ClosingDate, &sub.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select submission: %w", err)
	}
	sub.ID = id.SubmissionID(rawID)
	if err := json.Unmarshal(selections, &sub.Attributes.ExemptionSelections); err != nil {
		return nil, fmt.Errorf("unmarshal exemption selections: %w", err)
	}
	if sub.Determinations, err = s.listDeterminations(ctx, subID); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *PostgresStore) UpdateAttributes(ctx context.Context, subID id.SubmissionID, updated models.Submission) error {
	selections, err := json.Marshal(updated.Attributes.ExemptionSelections)
	if err != nil {
		return fmt.Errorf("marshal exemption selections: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET property_class = $2, financing = $3, regulated_lender = $4,
		    buyer_form = $5, exemption_selections = $6, closing_date = $7
		WHERE id = $1`,
		uuid.UUID(subID), string(updated.Attributes.PropertyClass), string(updated.Attributes.Financing),
		updated.Attributes.RegulatedLender, string(updated.Attributes.BuyerForm),
		selections, updated.ClosingDate,
	)
	if err != nil {
		return fmt.Errorf("update submission attributes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendDetermination(ctx context.Context, subID id.SubmissionID, rec models.DeterminationRecord) error {
	reasons, err := json.Marshal(rec.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submission_determinations (
			submission_id, verdict, reasons, method, justification, actor_id, determined_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(subID), string(rec.Verdict), reasons, string(rec.Method),
		rec.Justification, rec.ActorID, rec.DeterminedAt,
	)
	if err != nil {
		return fmt.Errorf("insert determination: %w", err)
	}
	return nil
}

func (s *PostgresStore) listDeterminations(ctx context.Context, subID id.SubmissionID) ([]models.DeterminationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT verdict, reasons, method, justification, actor_id, determined_at
		FROM submission_determinations
		WHERE submission_id = $1
		ORDER BY determined_at ASC, seq ASC`,
		uuid.UUID(subID),
	)
	if err != nil {
		return nil, fmt.Errorf("select determinations: %w", err)
	}
	defer rows.Close()

	var recs []models.DeterminationRecord
	for rows.Next() {
		var (
			rec     models.DeterminationRecord
			reasons []byte
			at      time.Time
		)
		if err := rows.Scan(&rec.Verdict, &reasons, &rec.Method, &rec.Justification, &rec.ActorID, &at); err != nil {
			return nil, fmt.Errorf("scan determination: %w", err)
		}
		if err := json.Unmarshal(reasons, &rec.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal reasons: %w", err)
		}
		rec.DeterminedAt = at
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate determinations: %w", err)
	}
	return recs, nil
}
