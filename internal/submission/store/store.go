// Package store persists submissions and their determination history.
package store

import (
	"context"
	"sync"

	"deedflow/internal/submission/models"
	id "deedflow/pkg/domain"
	"deedflow/pkg/platform/sentinel"
)

// Store is the persistence contract consumed by the submission service.
type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, subID id.SubmissionID) (*models.Submission, error)
	// UpdateAttributes replaces the intake attributes. Callers gate this on
	// the verdict still being undetermined.
	UpdateAttributes(ctx context.Context, subID id.SubmissionID, attrs models.Submission) error
	// AppendDetermination adds one record to the history. History is
	// append-only; existing records are never rewritten.
	AppendDetermination(ctx context.Context, subID id.SubmissionID, rec models.DeterminationRecord) error
}

// InMemoryStore is a map-backed Store for tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	subs map[id.SubmissionID]*models.Submission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{subs: make(map[id.SubmissionID]*models.Submission)}
}

func (s *InMemoryStore) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := cloneSubmission(sub)
	s.subs[sub.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, subID id.SubmissionID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[subID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := cloneSubmission(sub)
	return &cp, nil
}

func (s *InMemoryStore) UpdateAttributes(_ context.Context, subID id.SubmissionID, updated models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subID]
	if !ok {
		return sentinel.ErrNotFound
	}
	sub.Attributes = updated.Attributes
	sub.ClosingDate = updated.ClosingDate
	return nil
}

func (s *InMemoryStore) AppendDetermination(_ context.Context, subID id.SubmissionID, rec models.DeterminationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subID]
	if !ok {
		return sentinel.ErrNotFound
	}
	sub.Determinations = append(sub.Determinations, rec)
	return nil
}

func cloneSubmission(sub *models.Submission) models.Submission {
	cp := *sub
	cp.Attributes.ExemptionSelections = append([]string(nil), sub.Attributes.ExemptionSelections...)
	cp.Determinations = append([]models.DeterminationRecord(nil), sub.Determinations...)
	return cp
}
