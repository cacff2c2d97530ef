package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"deedflow/internal/audit"
	"deedflow/internal/notification"
	"deedflow/internal/reconciliation/metrics"
	reportmodels "deedflow/internal/report/models"
	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
)

//go:generate mockgen -source=poller.go -destination=mocks/mock_poller.go -package=mocks

// OutcomeApplier is the slice of the report service the poller needs.
type OutcomeApplier interface {
	ApplyOutcome(ctx context.Context, receipt id.ReceiptID, outcome reportmodels.Status, reason string) (*reportmodels.Report, bool, error)
}

// Poller drains the acknowledgment feed each tick. Every record is handled
// in isolation: anomalies are counted and settled, stale-state losers are
// left for redelivery, and a feed failure skips the whole tick. Running a
// tick twice over the same feed changes nothing the second time.
type Poller struct {
	source       Source
	reports      OutcomeApplier
	notifier     *notification.Notifier
	auditor      *audit.Publisher
	fetchTimeout time.Duration
	recipient    string
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Poller)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithOutcomeRecipient sets the mailbox outcome notifications go to.
func WithOutcomeRecipient(addr string) Option {
	return func(p *Poller) { p.recipient = addr }
}

func New(source Source, reports OutcomeApplier, notifier *notification.Notifier, auditor *audit.Publisher, fetchTimeout time.Duration, opts ...Option) *Poller {
	p := &Poller{
		source:       source,
		reports:      reports,
		notifier:     notifier,
		auditor:      auditor,
		fetchTimeout: fetchTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) Name() string { return "filing-reconciliation" }

// Run performs one reconciliation pass.
func (p *Poller) Run(ctx context.Context, now time.Time) error {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	acks, err := p.source.Fetch(fetchCtx)
	cancel()
	if err != nil {
		if p.metrics != nil {
			p.metrics.FetchFailures.Inc()
		}
		return fmt.Errorf("fetch acknowledgments: %w", err)
	}
	for _, ack := range acks {
		p.handle(ctx, ack)
	}
	return nil
}

func (p *Poller) handle(ctx context.Context, ack Acknowledgment) {
	if ack.Malformed {
		p.anomaly(ctx, ack, "malformed", "unparseable acknowledgment record")
		p.settle(ctx, ack)
		return
	}
	accepted, ok := NormalizeOutcome(ack.Outcome)
	if !ok {
		p.anomaly(ctx, ack, "unknown_outcome", "unrecognized outcome code "+ack.Outcome)
		p.settle(ctx, ack)
		return
	}
	outcome := reportmodels.StatusAccepted
	if !accepted {
		outcome = reportmodels.StatusRejected
	}
	rep, applied, err := p.reports.ApplyOutcome(ctx, ack.ReceiptID, outcome, ack.Reason)
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		p.anomaly(ctx, ack, "unmatched_receipt", "no filed report for receipt")
		p.settle(ctx, ack)
		return
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		p.anomaly(ctx, ack, "conflicting_outcome", "acknowledgment conflicts with resolved report")
		p.settle(ctx, ack)
		return
	case dErrors.HasCode(err, dErrors.CodeStaleState):
		// Lost a concurrent transition; the record stays pending and the
		// next tick retries it.
		p.logger.WarnContext(ctx, "acknowledgment deferred on stale state",
			"receipt_id", string(ack.ReceiptID))
		return
	case err != nil:
		p.logger.ErrorContext(ctx, "acknowledgment failed",
			"receipt_id", string(ack.ReceiptID), "error", err)
		return
	}
	if applied {
		if p.metrics != nil {
			p.metrics.Applied.Inc()
		}
		p.notifyOutcome(ctx, rep, accepted, ack.Reason)
	} else {
		if p.metrics != nil {
			p.metrics.Redelivered.Inc()
		}
	}
	p.settle(ctx, ack)
}

// notifyOutcome sends the one filing-outcome notification per report. The
// ledger checkpoint, not the applied flag, is the final dedup on redelivery
// races.
func (p *Poller) notifyOutcome(ctx context.Context, rep *reportmodels.Report, accepted bool, reason string) {
	checkpoint := notification.OutcomeCheckpoint(accepted)
	_, err := p.notifier.Notify(ctx, rep.ID.String(), notification.KindOutcome, checkpoint, notification.Message{
		Recipient: p.recipient,
		Template:  "filing-outcome",
		Data: map[string]any{
			"report_id": rep.ID.String(),
			"status":    string(rep.Status),
			"reason":    reason,
		},
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "outcome notification failed",
			"report_id", rep.ID.String(), "error", err)
	}
}

func (p *Poller) anomaly(ctx context.Context, ack Acknowledgment, kind, detail string) {
	if p.metrics != nil {
		p.metrics.Anomalies.WithLabelValues(kind).Inc()
	}
	if err := p.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionAnomalyRecorded,
		SubjectType: "acknowledgment",
		SubjectID:   string(ack.ReceiptID),
		Reason:      kind + ": " + detail,
	}); err != nil {
		p.logger.ErrorContext(ctx, "audit emit failed", "action", audit.ActionAnomalyRecorded, "error", err)
	}
	p.logger.WarnContext(ctx, "acknowledgment anomaly",
		"type", kind,
		"receipt_id", string(ack.ReceiptID),
		"source", ack.Source,
	)
}

func (p *Poller) settle(ctx context.Context, ack Acknowledgment) {
	if err := p.source.Settle(ctx, ack); err != nil {
		p.logger.ErrorContext(ctx, "settle acknowledgment failed",
			"source", ack.Source, "error", err)
	}
}
