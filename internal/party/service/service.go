// Package service manages report parties: attaching them, dispatching and
// resolving secure links, accepting payload submissions, and staff
// verification.
package service

import (
	"context"
	"errors"
	"log/slog"

	"deedflow/internal/audit"
	"deedflow/internal/determination"
	"deedflow/internal/lifecycle"
	"deedflow/internal/notification"
	"deedflow/internal/party/models"
	"deedflow/internal/party/securelink"
	"deedflow/internal/party/store"
	reportservice "deedflow/internal/report/service"
	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
	"deedflow/pkg/email"
	"deedflow/pkg/platform/sentinel"
	"deedflow/pkg/requestcontext"
)

// ReportGate lets the party service check whether a report still accepts
// roster changes. Implemented over the report service in main, keeping the
// import direction one-way.
type ReportGate interface {
	// RosterOpen returns a guard violation when the report no longer
	// accepts party changes (filed or terminal).
	RosterOpen(ctx context.Context, repID id.ReportID) error
}

type Service struct {
	store      store.Store
	machine    *lifecycle.Machine[models.Status]
	issuer     *securelink.Issuer
	links      securelink.ActiveLinkStore
	reports    ReportGate
	dispatcher notification.Dispatcher
	auditor    *audit.Publisher
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(st store.Store, issuer *securelink.Issuer, links securelink.ActiveLinkStore, reports ReportGate, dispatcher notification.Dispatcher, auditor *audit.Publisher, opts ...Option) *Service {
	s := &Service{
		store:      st,
		machine:    models.Machine(),
		issuer:     issuer,
		links:      links,
		reports:    reports,
		dispatcher: dispatcher,
		auditor:    auditor,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachRequest describes a party to add to a report's roster.
type AttachRequest struct {
	Role     models.Role
	Form     determination.LegalForm
	Required bool
	Email    string
}

// Attach adds a party to a report. The (role, legal form) pair must have a
// payload form, and the report must still accept roster changes.
func (s *Service) Attach(ctx context.Context, repID id.ReportID, req AttachRequest) (*models.Party, error) {
	if !req.Role.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown party role").Add("role", string(req.Role))
	}
	if _, err := models.KindFor(req.Role, req.Form); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "party email is required")
	}
	if err := s.reports.RosterOpen(ctx, repID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	p := &models.Party{
		ID:        id.NewPartyID(),
		ReportID:  repID,
		Role:      req.Role,
		Form:      req.Form,
		Status:    models.StatusPending,
		Required:  req.Required,
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create party")
	}
	s.emit(ctx, audit.ActionPartyCreated, p.ID, string(req.Role))
	return p, nil
}

// Get returns one party.
func (s *Service) Get(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	p, err := s.store.FindByID(ctx, partyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "party not found").Add("party_id", partyID.String())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load party")
	}
	return p, nil
}

// ListByReport returns a report's roster.
func (s *Service) ListByReport(ctx context.Context, repID id.ReportID) ([]*models.Party, error) {
	return s.store.ListByReport(ctx, repID)
}

// SendLink issues a fresh secure link and dispatches it to the party's
// email. Re-sending replaces the active link, revoking the previous one.
func (s *Service) SendLink(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	p, err := s.Get(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.machine.TryTransition(p.Status, models.EventSendLink); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	link, err := s.issuer.Issue(partyID, now)
	if err != nil {
		return nil, err
	}
	if err := s.links.Save(ctx, partyID, link.SecretHash, link.ExpiresAt, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save active link")
	}
	if err := s.store.MarkLinkSent(ctx, partyID, p.Status, link.ExpiresAt, now); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			return nil, dErrors.Wrap(err, dErrors.CodeStaleState, "party changed while sending link").
				Add("party_id", partyID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mark link sent")
	}
	p.Status = models.StatusLinkSent
	p.LinkExpiresAt = link.ExpiresAt
	p.LinkSentAt = now
	p.UpdatedAt = now

	firstName, _ := email.DeriveNameFromEmail(p.Email)
	if err := s.dispatcher.Send(ctx, notification.Message{
		Recipient: p.Email,
		Template:  "party-secure-link",
		Data: map[string]any{
			"first_name": firstName,
			"role":       string(p.Role),
			"token":      link.Token,
			"expires_at": link.ExpiresAt,
		},
	}); err != nil {
		s.logger.ErrorContext(ctx, "secure link dispatch failed", "party_id", partyID.String(), "error", err)
	}
	s.emit(ctx, audit.ActionPartyLinkIssued, partyID, "")
	return p, nil
}

// ResolveLink authenticates a presented link token and returns the party.
// First touch of a fresh link moves the party to in_progress.
func (s *Service) ResolveLink(ctx context.Context, token string) (*models.Party, error) {
	p, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusLinkSent {
		now := requestcontext.Now(ctx)
		if err := s.store.UpdateStatus(ctx, p.ID, models.StatusLinkSent, models.StatusInProgress, now); err != nil {
			if !errors.Is(err, sentinel.ErrStaleState) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "open link")
			}
			// Concurrent open; re-read and continue.
			return s.Get(ctx, p.ID)
		}
		p.Status = models.StatusInProgress
		p.UpdatedAt = now
	}
	return p, nil
}

// SubmitPayload accepts a party's data through their secure link. The
// payload variant must match the party's role and legal form exactly.
func (s *Service) SubmitPayload(ctx context.Context, token string, payload *models.Payload) (*models.Party, error) {
	p, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := payload.ValidateFor(p.Role, p.Form); err != nil {
		return nil, err
	}
	// Submitting without a separate open is fine; the open is implied.
	if p.Status == models.StatusLinkSent {
		now := requestcontext.Now(ctx)
		if err := s.store.UpdateStatus(ctx, p.ID, models.StatusLinkSent, models.StatusInProgress, now); err != nil && !errors.Is(err, sentinel.ErrStaleState) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "open link")
		}
		p.Status = models.StatusInProgress
	}
	if _, err := s.machine.TryTransition(p.Status, models.EventSubmit); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := s.store.SavePayload(ctx, p.ID, p.Status, payload, now); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			return nil, dErrors.Wrap(err, dErrors.CodeStaleState, "party changed while submitting").
				Add("party_id", p.ID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save party payload")
	}
	p.Status = models.StatusSubmitted
	p.Payload = payload
	p.UpdatedAt = now
	s.emit(ctx, audit.ActionPartySubmitted, p.ID, "")
	return p, nil
}

// Verify is the staff confirmation of a submitted payload. Verification
// retires the party's active link.
func (s *Service) Verify(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	p, err := s.transition(ctx, partyID, models.EventVerify)
	if err != nil {
		return nil, err
	}
	if err := s.links.Delete(ctx, partyID); err != nil {
		s.logger.WarnContext(ctx, "active link cleanup failed", "party_id", partyID.String(), "error", err)
	}
	s.emit(ctx, audit.ActionPartyVerified, partyID, "")
	return p, nil
}

// RequestCorrection sends a submitted party back to in_progress. This is the
// single sanctioned regression in the party lifecycle and always carries a
// reason into the audit trail.
func (s *Service) RequestCorrection(ctx context.Context, partyID id.PartyID, reason string) (*models.Party, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "correction reason is required")
	}
	p, err := s.transition(ctx, partyID, models.EventRequestCorrection)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.ActionCorrectionRequested, partyID, reason)
	s.logger.InfoContext(ctx, "correction requested",
		"party_id", partyID.String(),
		"reason", reason,
	)
	return p, nil
}

// Summary aggregates a report's roster for the report lifecycle guards.
func (s *Service) Summary(ctx context.Context, repID id.ReportID) (reportservice.RosterSummary, error) {
	parties, err := s.store.ListByReport(ctx, repID)
	if err != nil {
		return reportservice.RosterSummary{}, err
	}
	var summary reportservice.RosterSummary
	for _, p := range parties {
		summary.Total++
		if p.Status.AtLeast(models.StatusLinkSent) {
			summary.LinksDispatched++
		}
		if p.Required && !p.Status.AtLeast(models.StatusSubmitted) {
			summary.RequiredBelowSubmitted++
		}
		if p.Role == models.RoleReportingPerson {
			summary.ReportingPersonDesignated = true
		}
	}
	return summary, nil
}

func (s *Service) authenticate(ctx context.Context, token string) (*models.Party, error) {
	now := requestcontext.Now(ctx)
	partyID, secret, err := s.issuer.Resolve(token, now)
	if errors.Is(err, sentinel.ErrExpired) {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "link expired")
	}
	if err != nil {
		return nil, err
	}
	hash, err := s.links.Load(ctx, partyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Superseded by a newer link or already retired.
		return nil, dErrors.New(dErrors.CodeUnauthorized, "link is no longer active")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load active link")
	}
	if !securelink.VerifySecret(hash, secret) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "link is no longer active")
	}
	return s.Get(ctx, partyID)
}

func (s *Service) transition(ctx context.Context, partyID id.PartyID, event lifecycle.Event) (*models.Party, error) {
	p, err := s.Get(ctx, partyID)
	if err != nil {
		return nil, err
	}
	next, err := s.machine.TryTransition(p.Status, event)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, partyID, p.Status, next, now); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			return nil, dErrors.Wrap(err, dErrors.CodeStaleState, "party changed concurrently").
				Add("party_id", partyID.String()).
				Add("event", string(event))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update party status")
	}
	p.Status = next
	p.UpdatedAt = now
	return p, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, partyID id.PartyID, reason string) {
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:      action,
		SubjectType: "party",
		SubjectID:   partyID.String(),
		Reason:      reason,
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
