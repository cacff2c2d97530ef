package notification

import (
	"context"
	"log/slog"

	"deedflow/internal/audit"
	"deedflow/internal/notification/metrics"
)

// Notifier is the one path every checkpointed notification goes through:
// claim the checkpoint in the ledger, then dispatch. A duplicate claim
// suppresses the send entirely; a dispatch failure after the claim is logged
// and counted but never retried.
type Notifier struct {
	ledger     Ledger
	dispatcher Dispatcher
	auditor    *audit.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type NotifierOption func(*Notifier)

func WithLogger(logger *slog.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = logger }
}

func WithMetrics(m *metrics.Metrics) NotifierOption {
	return func(n *Notifier) { n.metrics = m }
}

func NewNotifier(ledger Ledger, dispatcher Dispatcher, auditor *audit.Publisher, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		ledger:     ledger,
		dispatcher: dispatcher,
		auditor:    auditor,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify claims (subjectID, kind, checkpoint) and sends msg if the claim
// won. It reports whether this call claimed the checkpoint.
func (n *Notifier) Notify(ctx context.Context, subjectID string, kind Kind, checkpoint string, msg Message) (bool, error) {
	claimed, err := n.ledger.Record(ctx, subjectID, kind, checkpoint)
	if err != nil {
		return false, err
	}
	if !claimed {
		if n.metrics != nil {
			n.metrics.Suppressed.WithLabelValues(string(kind)).Inc()
		}
		return false, nil
	}
	if err := n.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionNotificationSent,
		SubjectType: "notification",
		SubjectID:   subjectID,
		Reason:      checkpoint,
	}); err != nil {
		n.logger.ErrorContext(ctx, "audit emit failed", "action", audit.ActionNotificationSent, "error", err)
	}
	if err := n.dispatcher.Send(ctx, msg); err != nil {
		// The checkpoint stays claimed: losing one message beats sending two.
		if n.metrics != nil {
			n.metrics.SendErrors.WithLabelValues(string(kind)).Inc()
		}
		n.logger.ErrorContext(ctx, "notification dispatch failed",
			"subject_id", subjectID,
			"checkpoint", checkpoint,
			"error", err,
		)
		return true, nil
	}
	if n.metrics != nil {
		n.metrics.Sent.WithLabelValues(string(kind)).Inc()
	}
	return true, nil
}
