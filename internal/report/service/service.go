// Package service drives the report lifecycle: opening on a reportable
// verdict, gating collection and readiness, filing, and applying
// acknowledgment outcomes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"deedflow/internal/audit"
	"deedflow/internal/lifecycle"
	"deedflow/internal/report/metrics"
	"deedflow/internal/report/models"
	"deedflow/internal/report/store"
	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
	"deedflow/pkg/platform/sentinel"
	"deedflow/pkg/requestcontext"
)

// RosterSummary describes the parties attached to a report, aggregated for
// the lifecycle guards.
type RosterSummary struct {
	Total                     int
	LinksDispatched           int
	RequiredBelowSubmitted    int
	ReportingPersonDesignated bool
}

// PartyRoster is implemented by the party service; reports only need the
// aggregate view.
type PartyRoster interface {
	Summary(ctx context.Context, repID id.ReportID) (RosterSummary, error)
}

// FilingChannel composes and submits the filing payload, returning the
// channel-assigned receipt identifier.
type FilingChannel interface {
	SubmitFiling(ctx context.Context, rep *models.Report) (id.ReceiptID, error)
}

type Service struct {
	store        store.Store
	machine      *lifecycle.Machine[models.Status]
	roster       PartyRoster
	filing       FilingChannel
	auditor      *audit.Publisher
	filingWindow time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(st store.Store, roster PartyRoster, filing FilingChannel, auditor *audit.Publisher, filingWindow time.Duration, opts ...Option) *Service {
	s := &Service{
		store:        st,
		machine:      models.Machine(),
		roster:       roster,
		filing:       filing,
		auditor:      auditor,
		filingWindow: filingWindow,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateForSubmission opens a report for a submission that was found
// reportable. The filing deadline is derived once from the closing date and
// never recomputed. The new report lands in determination_complete, since a
// terminal verdict is what caused it to exist.
func (s *Service) CreateForSubmission(ctx context.Context, subID id.SubmissionID, closingDate time.Time) (id.ReportID, error) {
	now := requestcontext.Now(ctx)
	rep := &models.Report{
		ID:             id.NewReportID(),
		SubmissionID:   subID,
		Status:         models.StatusDraft,
		FilingDeadline: closingDate.Add(s.filingWindow),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, rep); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			existing, ferr := s.store.FindBySubmission(ctx, subID)
			if ferr == nil {
				return existing.ID, nil
			}
		}
		return id.ReportID{}, dErrors.Wrap(err, dErrors.CodeInternal, "create report")
	}
	s.emit(ctx, audit.ActionReportCreated, rep.ID, "")
	if _, err := s.transition(ctx, rep, models.EventCompleteDetermination); err != nil {
		return id.ReportID{}, err
	}
	return rep.ID, nil
}

// Get returns one report.
func (s *Service) Get(ctx context.Context, repID id.ReportID) (*models.Report, error) {
	rep, err := s.store.FindByID(ctx, repID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "report not found").Add("report_id", repID.String())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load report")
	}
	return rep, nil
}

// RosterOpen reports whether the roster still accepts party changes. Once a
// report is filed the roster is frozen; corrections go through the external
// channel's rejection path.
func (s *Service) RosterOpen(ctx context.Context, repID id.ReportID) error {
	rep, err := s.Get(ctx, repID)
	if err != nil {
		return err
	}
	if rep.Status == models.StatusFiled || rep.Status.Terminal() {
		return s.guard("roster_closed", "report "+rep.ID.String()+" no longer accepts roster changes")
	}
	return nil
}

// BeginCollecting moves the report into party data collection. Guarded on at
// least one attached party with a dispatched secure link.
func (s *Service) BeginCollecting(ctx context.Context, repID id.ReportID) (*models.Report, error) {
	rep, err := s.Get(ctx, repID)
	if err != nil {
		return nil, err
	}
	summary, err := s.roster.Summary(ctx, repID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load party roster")
	}
	if summary.Total == 0 {
		return nil, s.guard("no_parties", "cannot collect with no parties attached")
	}
	if summary.LinksDispatched == 0 {
		return nil, s.guard("links_not_dispatched", "cannot collect before any secure link was dispatched")
	}
	return s.transition(ctx, rep, models.EventBeginCollecting)
}

// MarkReady declares party data collection complete. Guarded on every
// required party having submitted and a reporting person being designated.
func (s *Service) MarkReady(ctx context.Context, repID id.ReportID) (*models.Report, error) {
	rep, err := s.Get(ctx, repID)
	if err != nil {
		return nil, err
	}
	summary, err := s.roster.Summary(ctx, repID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load party roster")
	}
	if summary.RequiredBelowSubmitted > 0 {
		return nil, s.guard("party_not_submitted", "required parties have not submitted yet")
	}
	if !summary.ReportingPersonDesignated {
		return nil, s.guard("no_reporting_person", "no reporting person designated")
	}
	return s.transition(ctx, rep, models.EventMarkReady)
}

// File submits the report to the filing channel. Filing an already-filed
// report is a no-op returning the current state, so retries after a timeout
// are safe.
func (s *Service) File(ctx context.Context, repID id.ReportID) (*models.Report, error) {
	rep, err := s.Get(ctx, repID)
	if err != nil {
		return nil, err
	}
	switch rep.Status {
	case models.StatusFiled, models.StatusAccepted, models.StatusRejected:
		return rep, nil
	}
	if _, err := s.machine.TryTransition(rep.Status, models.EventFile); err != nil {
		s.countGuard(err)
		return nil, err
	}
	receipt, err := s.filing.SubmitFiling(ctx, rep)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "filing channel submit")
	}
	now := requestcontext.Now(ctx)
	if err := s.store.MarkFiled(ctx, repID, receipt, now); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			// Lost the race to a concurrent File; treat as already filed.
			if s.metrics != nil {
				s.metrics.StaleStateLost.Inc()
			}
			return s.Get(ctx, repID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mark report filed")
	}
	rep.Status = models.StatusFiled
	rep.ReceiptID = receipt
	rep.FiledAt = now
	rep.UpdatedAt = now
	if s.metrics != nil {
		s.metrics.Filed.Inc()
		s.metrics.Transitions.WithLabelValues(string(models.StatusFiled)).Inc()
	}
	s.emit(ctx, audit.ActionReportFiled, repID, string(receipt))
	s.logger.InfoContext(ctx, "report filed", "report_id", repID.String(), "receipt_id", string(receipt))
	return rep, nil
}

// ApplyOutcome records the filing channel's acknowledgment for a receipt.
// Only the reconciliation poller calls this. Re-applying the outcome already
// recorded reports applied=false; a conflicting outcome for a resolved
// report is an invariant violation.
func (s *Service) ApplyOutcome(ctx context.Context, receipt id.ReceiptID, outcome models.Status, reason string) (*models.Report, bool, error) {
	if outcome != models.StatusAccepted && outcome != models.StatusRejected {
		return nil, false, dErrors.New(dErrors.CodeInvalidInput, "outcome must be accepted or rejected").
			Add("outcome", string(outcome))
	}
	rep, err := s.store.FindByReceipt(ctx, receipt)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.New(dErrors.CodeNotFound, "no filed report for receipt").
			Add("receipt_id", string(receipt))
	}
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "load report by receipt")
	}
	if rep.Status == outcome {
		return rep, false, nil
	}
	if rep.Status.Terminal() {
		return nil, false, dErrors.New(dErrors.CodeInvariantViolation, "acknowledgment conflicts with resolved report").
			Add("report_id", rep.ID.String()).
			Add("status", string(rep.Status)).
			Add("outcome", string(outcome))
	}
	event := models.EventAccept
	if outcome == models.StatusRejected {
		event = models.EventReject
	}
	if _, err := s.machine.TryTransition(rep.Status, event); err != nil {
		s.countGuard(err)
		return nil, false, err
	}
	now := requestcontext.Now(ctx)
	if err := s.store.ApplyOutcome(ctx, rep.ID, outcome, reason, now); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			if s.metrics != nil {
				s.metrics.StaleStateLost.Inc()
			}
			return nil, false, dErrors.Wrap(err, dErrors.CodeStaleState, "report changed while applying outcome").
				Add("report_id", rep.ID.String())
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "apply report outcome")
	}
	rep.Status = outcome
	rep.RejectionReason = reason
	rep.ResolvedAt = now
	rep.UpdatedAt = now
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(outcome)).Inc()
	}
	s.emit(ctx, audit.ActionAcknowledgmentApplied, rep.ID, string(outcome))
	return rep, true, nil
}

// Abandon closes a report that will never be filed. Allowed from any
// pre-filing status.
func (s *Service) Abandon(ctx context.Context, repID id.ReportID, reason string) (*models.Report, error) {
	rep, err := s.Get(ctx, repID)
	if err != nil {
		return nil, err
	}
	next, err := s.machine.TryTransition(rep.Status, models.EventAbandon)
	if err != nil {
		s.countGuard(err)
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, repID, rep.Status, next, now); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			if s.metrics != nil {
				s.metrics.StaleStateLost.Inc()
			}
			return nil, dErrors.Wrap(err, dErrors.CodeStaleState, "report changed while abandoning").
				Add("report_id", repID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "abandon report")
	}
	rep.Status = next
	rep.UpdatedAt = now
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(next)).Inc()
	}
	s.emit(ctx, audit.ActionReportAbandoned, repID, reason)
	return rep, nil
}

// ListOpenWithDeadlines exposes open reports to the reminder sweep.
func (s *Service) ListOpenWithDeadlines(ctx context.Context) ([]*models.Report, error) {
	return s.store.ListOpenWithDeadlines(ctx)
}

// AuditTrail returns the report's audit events, oldest first.
func (s *Service) AuditTrail(ctx context.Context, repID id.ReportID) ([]audit.Event, error) {
	return s.auditor.List(ctx, "report", repID.String())
}

func (s *Service) transition(ctx context.Context, rep *models.Report, event lifecycle.Event) (*models.Report, error) {
	next, err := s.machine.TryTransition(rep.Status, event)
	if err != nil {
		s.countGuard(err)
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, rep.ID, rep.Status, next, now); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			if s.metrics != nil {
				s.metrics.StaleStateLost.Inc()
			}
			return nil, dErrors.Wrap(err, dErrors.CodeStaleState, "report changed concurrently").
				Add("report_id", rep.ID.String()).
				Add("event", string(event))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update report status")
	}
	rep.Status = next
	rep.UpdatedAt = now
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(next)).Inc()
	}
	s.emit(ctx, audit.ActionReportTransitioned, rep.ID, string(next))
	return rep, nil
}

func (s *Service) guard(name, detail string) error {
	if s.metrics != nil {
		s.metrics.GuardViolations.WithLabelValues(name).Inc()
	}
	return lifecycle.Violation(name, detail)
}

func (s *Service) countGuard(err error) {
	if s.metrics == nil {
		return
	}
	if name := lifecycle.GuardName(err); name != "" {
		s.metrics.GuardViolations.WithLabelValues(name).Inc()
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, repID id.ReportID, reason string) {
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:      action,
		SubjectType: "report",
		SubjectID:   repID.String(),
		Reason:      reason,
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
