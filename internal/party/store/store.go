// Package store persists report parties. Like reports, every status write is
// conditional on the status the caller read.
package store

import (
	"context"
	"sync"
	"time"

	"deedflow/internal/party/models"
	id "deedflow/pkg/domain"
	"deedflow/pkg/platform/sentinel"
)

// Store is the persistence contract consumed by the party service and the
// nudge sweep.
type Store interface {
	Create(ctx context.Context, p *models.Party) error
	FindByID(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	ListByReport(ctx context.Context, repID id.ReportID) ([]*models.Party, error)
	// UpdateStatus moves the party from exactly `from` to `to`, returning
	// sentinel.ErrStaleState when the stored status no longer matches.
	UpdateStatus(ctx context.Context, partyID id.PartyID, from, to models.Status, at time.Time) error
	// MarkLinkSent records a link dispatch: status, expiry, and sent time in
	// one conditional write.
	MarkLinkSent(ctx context.Context, partyID id.PartyID, from models.Status, expiresAt, at time.Time) error
	// SavePayload stores the submitted payload and moves the party to
	// submitted in one conditional write.
	SavePayload(ctx context.Context, partyID id.PartyID, from models.Status, payload *models.Payload, at time.Time) error
	// ListAwaitingAction returns parties sitting in link_sent or in_progress
	// across all reports. Used by the nudge sweep.
	ListAwaitingAction(ctx context.Context) ([]*models.Party, error)
}

// InMemoryStore is a map-backed Store for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	parties map[id.PartyID]*models.Party
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{parties: make(map[id.PartyID]*models.Party)}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[p.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *p
	s.parties[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, partyID id.PartyID) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[partyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) ListByReport(_ context.Context, repID id.ReportID) ([]*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Party
	for _, p := range s.parties {
		if p.ReportID == repID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, partyID id.PartyID, from, to models.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parties[partyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.Status != from {
		return sentinel.ErrStaleState
	}
	p.Status = to
	p.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) MarkLinkSent(_ context.Context, partyID id.PartyID, from models.Status, expiresAt, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parties[partyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.Status != from {
		return sentinel.ErrStaleState
	}
	p.Status = models.StatusLinkSent
	p.LinkExpiresAt = expiresAt
	p.LinkSentAt = at
	p.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) SavePayload(_ context.Context, partyID id.PartyID, from models.Status, payload *models.Payload, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parties[partyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.Status != from {
		return sentinel.ErrStaleState
	}
	p.Status = models.StatusSubmitted
	p.Payload = payload
	p.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) ListAwaitingAction(_ context.Context) ([]*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Party
	for _, p := range s.parties {
		if p.Status == models.StatusLinkSent || p.Status == models.StatusInProgress {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
