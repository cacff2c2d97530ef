package reconciliation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	id "deedflow/pkg/domain"
)

// DropDirectory reads acknowledgments the filing channel drops as JSON files
// into a directory. Settled records are moved to a processed/ subdirectory
// rather than deleted, keeping the raw feed inspectable.
type DropDirectory struct {
	dir       string
	processed string
}

func NewDropDirectory(dir string) (*DropDirectory, error) {
	processed := filepath.Join(dir, "processed")
	if err := os.MkdirAll(processed, 0o750); err != nil {
		return nil, fmt.Errorf("create ack drop dir: %w", err)
	}
	return &DropDirectory{dir: dir, processed: processed}, nil
}

type ackDocument struct {
	ReceiptID string `json:"receipt_id"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason"`
}

func (d *DropDirectory) Fetch(ctx context.Context) ([]Acknowledgment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read ack drop dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var acks []Acknowledgment
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(d.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read ack %s: %w", name, err)
		}
		var doc ackDocument
		if err := json.Unmarshal(raw, &doc); err != nil || doc.ReceiptID == "" {
			acks = append(acks, Acknowledgment{Source: name, Malformed: true})
			continue
		}
		acks = append(acks, Acknowledgment{
			ReceiptID: id.ReceiptID(doc.ReceiptID),
			Outcome:   doc.Outcome,
			Reason:    doc.Reason,
			Source:    name,
		})
	}
	return acks, nil
}

func (d *DropDirectory) Settle(_ context.Context, ack Acknowledgment) error {
	if ack.Source == "" {
		return nil
	}
	if err := os.Rename(filepath.Join(d.dir, ack.Source), filepath.Join(d.processed, ack.Source)); err != nil {
		return fmt.Errorf("settle ack %s: %w", ack.Source, err)
	}
	return nil
}
