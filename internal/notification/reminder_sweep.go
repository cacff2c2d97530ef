package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	reportmodels "deedflow/internal/report/models"
)

// ReportSource lists the reports the reminder sweep considers. Implemented
// by the report store.
type ReportSource interface {
	ListOpenWithDeadlines(ctx context.Context) ([]*reportmodels.Report, error)
}

// ReminderSweep sends deadline reminders for open reports. Each pass claims
// at most the current bucket per report, so a report discovered late goes
// straight to its nearest bucket without back-filling earlier ones.
type ReminderSweep struct {
	reports   ReportSource
	notifier  *Notifier
	recipient string
	logger    *slog.Logger
}

func NewReminderSweep(reports ReportSource, notifier *Notifier, recipient string, logger *slog.Logger) *ReminderSweep {
	return &ReminderSweep{reports: reports, notifier: notifier, recipient: recipient, logger: logger}
}

func (s *ReminderSweep) Name() string { return "deadline-reminders" }

// Run evaluates every open report against now. The reference time is passed
// in by the sweep runner so a slow pass does not smear bucket boundaries.
func (s *ReminderSweep) Run(ctx context.Context, now time.Time) error {
	reports, err := s.reports.ListOpenWithDeadlines(ctx)
	if err != nil {
		return fmt.Errorf("list open reports: %w", err)
	}
	for _, rep := range reports {
		checkpoint, due := DeadlineCheckpoint(rep.FilingDeadline, now)
		if !due {
			continue
		}
		claimed, err := s.notifier.Notify(ctx, rep.ID.String(), KindReminder, checkpoint, Message{
			Recipient: s.recipient,
			Template:  "filing-deadline-reminder",
			Data: map[string]any{
				"report_id":       rep.ID.String(),
				"status":          string(rep.Status),
				"filing_deadline": rep.FilingDeadline,
				"checkpoint":      checkpoint,
			},
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "reminder checkpoint failed",
				"report_id", rep.ID.String(), "checkpoint", checkpoint, "error", err)
			continue
		}
		if claimed {
			s.logger.InfoContext(ctx, "deadline reminder sent",
				"report_id", rep.ID.String(), "checkpoint", checkpoint)
		}
	}
	return nil
}
