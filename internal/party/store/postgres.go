package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"deedflow/internal/party/models"
	id "deedflow/pkg/domain"
	"deedflow/pkg/platform/sentinel"
)

// PostgresStore persists parties in the parties table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const partyColumns = `
	id, report_id, role, legal_form, status, required, email,
	link_expires_at, link_sent_at, payload, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Party) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parties (id, report_id, role, legal_form, status, required, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(p.ID), uuid.UUID(p.ReportID), string(p.Role), string(p.Form),
		string(p.Status), p.Required, p.Email, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert party: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+partyColumns+` FROM parties WHERE id = $1`, uuid.UUID(partyID))
	p, err := scanParty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) ListByReport(ctx context.Context, repID id.ReportID) ([]*models.Party, error) {
	return s.list(ctx, `WHERE report_id = $1 ORDER BY created_at ASC`, uuid.UUID(repID))
}

func (s *PostgresStore) ListAwaitingAction(ctx context.Context) ([]*models.Party, error) {
	return s.list(ctx, `WHERE status IN ($1, $2) ORDER BY link_sent_at ASC`,
		string(models.StatusLinkSent), string(models.StatusInProgress))
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, partyID id.PartyID, from, to models.Status, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE parties
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		uuid.UUID(partyID), string(from), string(to), at,
	)
	if err != nil {
		return fmt.Errorf("update party status: %w", err)
	}
	return staleUnlessMatched(res)
}

func (s *PostgresStore) MarkLinkSent(ctx context.Context, partyID id.PartyID, from models.Status, expiresAt, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE parties
		SET status = $3, link_expires_at = $4, link_sent_at = $5, updated_at = $5
		WHERE id = $1 AND status = $2`,
		uuid.UUID(partyID), string(from), string(models.StatusLinkSent), expiresAt, at,
	)
	if err != nil {
		return fmt.Errorf("mark party link sent: %w", err)
	}
	return staleUnlessMatched(res)
}

func (s *PostgresStore) SavePayload(ctx context.Context, partyID id.PartyID, from models.Status, payload *models.Payload, at time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal party payload: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE parties
		SET status = $3, payload = $4, updated_at = $5
		WHERE id = $1 AND status = $2`,
		uuid.UUID(partyID), string(from), string(models.StatusSubmitted), raw, at,
	)
	if err != nil {
		return fmt.Errorf("save party payload: %w", err)
	}
	return staleUnlessMatched(res)
}

func (s *PostgresStore) list(ctx context.Context, where string, args ...any) ([]*models.Party, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+partyColumns+` FROM parties `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	var out []*models.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parties: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParty(row rowScanner) (*models.Party, error) {
	var (
		p           models.Party
		partyID     uuid.UUID
		reportID    uuid.UUID
		linkExpires sql.NullTime
		linkSent    sql.NullTime
		payload     []byte
	)
	err := row.Scan(
		&partyID, &reportID, &p.Role, &p.Form, &p.Status, &p.Required, &p.Email,
		&linkExpires, &linkSent, &payload, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan party: %w", err)
	}
	p.ID = id.PartyID(partyID)
	p.ReportID = id.ReportID(reportID)
	p.LinkExpiresAt = linkExpires.Time
	p.LinkSentAt = linkSent.Time
	if len(payload) > 0 {
		p.Payload = &models.Payload{}
		if err := json.Unmarshal(payload, p.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal party payload: %w", err)
		}
	}
	return &p, nil
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
