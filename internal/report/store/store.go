// Package store persists reports. Every status write is conditional on the
// status the caller read, so two racing workers cannot both win the same
// transition.
package store

import (
	"context"
	"sync"
	"time"

	"deedflow/internal/report/models"
	id "deedflow/pkg/domain"
	"deedflow/pkg/platform/sentinel"
)

// Store is the persistence contract consumed by the report service and the
// sweeps.
type Store interface {
	Create(ctx context.Context, rep *models.Report) error
	FindByID(ctx context.Context, repID id.ReportID) (*models.Report, error)
	FindBySubmission(ctx context.Context, subID id.SubmissionID) (*models.Report, error)
	FindByReceipt(ctx context.Context, receipt id.ReceiptID) (*models.Report, error)
	// UpdateStatus moves the report from exactly `from` to `to`. It returns
	// sentinel.ErrStaleState when the stored status no longer matches.
	UpdateStatus(ctx context.Context, repID id.ReportID, from, to models.Status, at time.Time) error
	// MarkFiled is UpdateStatus(ready_to_file, filed) plus recording the
	// receipt and filing time in the same conditional write.
	MarkFiled(ctx context.Context, repID id.ReportID, receipt id.ReceiptID, at time.Time) error
	// ApplyOutcome is UpdateStatus(filed, accepted|rejected) plus the
	// resolution time and rejection reason in the same conditional write.
	ApplyOutcome(ctx context.Context, repID id.ReportID, to models.Status, reason string, at time.Time) error
	// ListOpenWithDeadlines returns reports still collecting party data,
	// oldest deadline first. Used by the reminder sweep.
	ListOpenWithDeadlines(ctx context.Context) ([]*models.Report, error)
}

// InMemoryStore is a map-backed Store for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[id.ReportID]*models.Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[id.ReportID]*models.Report)}
}

func (s *InMemoryStore) Create(_ context.Context, rep *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[rep.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.reports {
		if existing.SubmissionID == rep.SubmissionID && !existing.Status.Terminal() {
			return sentinel.ErrConflict
		}
	}
	cp := *rep
	s.reports[rep.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, repID id.ReportID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reports[repID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (s *InMemoryStore) FindBySubmission(_ context.Context, subID id.SubmissionID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rep := range s.reports {
		if rep.SubmissionID == subID {
			cp := *rep
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByReceipt(_ context.Context, receipt id.ReceiptID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rep := range s.reports {
		if rep.ReceiptID == receipt && receipt != "" {
			cp := *rep
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, repID id.ReportID, from, to models.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[repID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rep.Status != from {
		return sentinel.ErrStaleState
	}
	rep.Status = to
	rep.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) MarkFiled(_ context.Context, repID id.ReportID, receipt id.ReceiptID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[repID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rep.Status != models.StatusReadyToFile {
		return sentinel.ErrStaleState
	}
	rep.Status = models.StatusFiled
	rep.ReceiptID = receipt
	rep.FiledAt = at
	rep.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) ApplyOutcome(_ context.Context, repID id.ReportID, to models.Status, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[repID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rep.Status != models.StatusFiled {
		return sentinel.ErrStaleState
	}
	rep.Status = to
	rep.RejectionReason = reason
	rep.ResolvedAt = at
	rep.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) ListOpenWithDeadlines(_ context.Context) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Report
	for _, rep := range s.reports {
		if rep.Status == models.StatusCollecting || rep.Status == models.StatusReadyToFile {
			cp := *rep
			out = append(out, &cp)
		}
	}
	return out, nil
}
