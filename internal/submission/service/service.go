// Package service implements intake and reportability determination for
// submissions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"deedflow/internal/audit"
	"deedflow/internal/determination"
	"deedflow/internal/lifecycle"
	"deedflow/internal/submission/models"
	"deedflow/internal/submission/store"
	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
	"deedflow/pkg/platform/sentinel"
	"deedflow/pkg/requestcontext"
)

// ReportCreator opens a report for a submission once it is found reportable.
// Implemented by the report service; submissions never import it directly.
type ReportCreator interface {
	CreateForSubmission(ctx context.Context, subID id.SubmissionID, closingDate time.Time) (id.ReportID, error)
}

type Service struct {
	store   store.Store
	engine  *determination.Engine
	reports ReportCreator
	auditor *audit.Publisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(st store.Store, engine *determination.Engine, reports ReportCreator, auditor *audit.Publisher, opts ...Option) *Service {
	s := &Service{
		store:   st,
		engine:  engine,
		reports: reports,
		auditor: auditor,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IntakeRequest carries the transaction attributes captured at intake.
type IntakeRequest struct {
	Attributes  determination.Attributes
	ClosingDate time.Time
}

// Intake creates a submission and immediately runs the automatic
// determination. An undetermined verdict is recorded as-is; callers update
// attributes and re-evaluate once the missing answers arrive.
func (s *Service) Intake(ctx context.Context, req IntakeRequest) (*models.Submission, error) {
	if req.ClosingDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "closing date is required")
	}
	now := requestcontext.Now(ctx)
	sub := &models.Submission{
		ID:          id.NewSubmissionID(),
		Attributes:  req.Attributes,
		ClosingDate: req.ClosingDate,
		CreatedAt:   now,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create submission")
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionSubmissionReceived,
		SubjectType: "submission",
		SubjectID:   sub.ID.String(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", audit.ActionSubmissionReceived, "error", err)
	}
	return s.determine(ctx, sub)
}

// Get returns one submission with its full determination history.
func (s *Service) Get(ctx context.Context, subID id.SubmissionID) (*models.Submission, error) {
	sub, err := s.store.FindByID(ctx, subID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found").Add("submission_id", subID.String())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load submission")
	}
	return sub, nil
}

// Reevaluate updates the intake attributes and reruns the automatic
// determination. Only permitted while the verdict is still undetermined;
// a terminal verdict is immutable except by manual override.
func (s *Service) Reevaluate(ctx context.Context, subID id.SubmissionID, attrs determination.Attributes) (*models.Submission, error) {
	sub, err := s.Get(ctx, subID)
	if err != nil {
		return nil, err
	}
	if sub.Verdict() != determination.VerdictUndetermined {
		return nil, lifecycle.Violation("verdict_immutable", "verdict is already terminal").
			Add("verdict", string(sub.Verdict()))
	}
	sub.Attributes = attrs
	if err := s.store.UpdateAttributes(ctx, subID, *sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update submission attributes")
	}
	return s.determine(ctx, sub)
}

// Override appends a manual determination record. The verdict must be
// terminal and a free-text justification is mandatory.
func (s *Service) Override(ctx context.Context, subID id.SubmissionID, verdict determination.Verdict, justification string) (*models.Submission, error) {
	if strings.TrimSpace(justification) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "override justification is required")
	}
	if verdict != determination.VerdictReportable && verdict != determination.VerdictExempt {
		return nil, dErrors.New(dErrors.CodeValidation, "override verdict must be terminal").
			Add("verdict", string(verdict))
	}
	sub, err := s.Get(ctx, subID)
	if err != nil {
		return nil, err
	}
	prior := sub.Verdict()
	rec := models.DeterminationRecord{
		Verdict:       verdict,
		Method:        determination.MethodManualOverride,
		Justification: strings.TrimSpace(justification),
		ActorID:       requestcontext.ActorID(ctx),
		DeterminedAt:  requestcontext.Now(ctx),
	}
	if err := s.store.AppendDetermination(ctx, subID, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "append override")
	}
	sub.Determinations = append(sub.Determinations, rec)
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionVerdictOverridden,
		SubjectType: "submission",
		SubjectID:   subID.String(),
		Reason:      rec.Justification,
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", audit.ActionVerdictOverridden, "error", err)
	}
	s.logger.InfoContext(ctx, "verdict overridden",
		"submission_id", subID.String(),
		"prior_verdict", string(prior),
		"verdict", string(verdict),
	)
	if prior != determination.VerdictReportable && verdict == determination.VerdictReportable {
		if err := s.openReport(ctx, sub); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// determine runs the rules engine and records the outcome. The automatic
// path reaches a terminal verdict at most once per submission.
func (s *Service) determine(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	if sub.HasAutomaticTerminal() {
		return nil, lifecycle.Violation("verdict_immutable", "automatic determination already terminal")
	}
	result, err := s.engine.Determine(sub.Attributes)
	if err != nil {
		return nil, err
	}
	rec := models.DeterminationRecord{
		Verdict:      result.Verdict,
		Reasons:      result.Reasons,
		Method:       determination.MethodAutomatic,
		DeterminedAt: requestcontext.Now(ctx),
	}
	if err := s.store.AppendDetermination(ctx, sub.ID, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "append determination")
	}
	sub.Determinations = append(sub.Determinations, rec)
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionVerdictDetermined,
		SubjectType: "submission",
		SubjectID:   sub.ID.String(),
		Reason:      string(result.Verdict),
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", audit.ActionVerdictDetermined, "error", err)
	}
	if result.Verdict == determination.VerdictReportable {
		if err := s.openReport(ctx, sub); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func (s *Service) openReport(ctx context.Context, sub *models.Submission) error {
	repID, err := s.reports.CreateForSubmission(ctx, sub.ID, sub.ClosingDate)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "open report for submission").
			Add("submission_id", sub.ID.String())
	}
	s.logger.InfoContext(ctx, "report opened",
		"submission_id", sub.ID.String(),
		"report_id", repID.String(),
	)
	return nil
}
