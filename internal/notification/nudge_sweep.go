package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	partymodels "deedflow/internal/party/models"
	"deedflow/pkg/email"
)

// PartySource lists the parties the nudge sweep considers. Implemented by
// the party store.
type PartySource interface {
	ListAwaitingAction(ctx context.Context) ([]*partymodels.Party, error)
}

// NudgeSweep nudges parties that received a secure link but have not
// submitted within seven days.
type NudgeSweep struct {
	parties  PartySource
	notifier *Notifier
	logger   *slog.Logger
}

func NewNudgeSweep(parties PartySource, notifier *Notifier, logger *slog.Logger) *NudgeSweep {
	return &NudgeSweep{parties: parties, notifier: notifier, logger: logger}
}

func (s *NudgeSweep) Name() string { return "party-nudges" }

func (s *NudgeSweep) Run(ctx context.Context, now time.Time) error {
	parties, err := s.parties.ListAwaitingAction(ctx)
	if err != nil {
		return fmt.Errorf("list parties awaiting action: %w", err)
	}
	for _, p := range parties {
		checkpoint, due := NudgeCheckpoint(p.LinkSentAt, now)
		if !due {
			continue
		}
		firstName, _ := email.DeriveNameFromEmail(p.Email)
		claimed, err := s.notifier.Notify(ctx, p.ID.String(), KindNudge, checkpoint, Message{
			Recipient: p.Email,
			Template:  "party-nudge",
			Data: map[string]any{
				"first_name": firstName,
				"role":       string(p.Role),
				"party_id":   p.ID.String(),
			},
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "nudge checkpoint failed",
				"party_id", p.ID.String(), "error", err)
			continue
		}
		if claimed {
			s.logger.InfoContext(ctx, "party nudged", "party_id", p.ID.String())
		}
	}
	return nil
}
