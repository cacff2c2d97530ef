// Package filing adapts the external filing channel. The channel here is a
// drop directory: each submitted filing is written as one JSON document named
// by its receipt, and acknowledgments come back through a sibling directory
// read by the reconciliation poller.
package filing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"deedflow/internal/report/models"
	id "deedflow/pkg/domain"
)

// DropDirectory submits filings by writing them under dir. The receipt is
// generated here because this adapter stands in for the channel that would
// otherwise assign it.
type DropDirectory struct {
	dir string
}

func NewDropDirectory(dir string) (*DropDirectory, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create filing drop dir: %w", err)
	}
	return &DropDirectory{dir: dir}, nil
}

type filingDocument struct {
	ReceiptID      string    `json:"receipt_id"`
	ReportID       string    `json:"report_id"`
	SubmissionID   string    `json:"submission_id"`
	FilingDeadline time.Time `json:"filing_deadline"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

func (d *DropDirectory) SubmitFiling(ctx context.Context, rep *models.Report) (id.ReceiptID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	receipt := id.ReceiptID("RCPT-" + uuid.NewString())
	doc := filingDocument{
		ReceiptID:      string(receipt),
		ReportID:       rep.ID.String(),
		SubmissionID:   rep.SubmissionID.String(),
		FilingDeadline: rep.FilingDeadline,
		SubmittedAt:    time.Now().UTC(),
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal filing: %w", err)
	}
	// Write-then-rename so the channel never reads a partial document.
	final := filepath.Join(d.dir, string(receipt)+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o640); err != nil {
		return "", fmt.Errorf("write filing: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("publish filing: %w", err)
	}
	return receipt, nil
}
