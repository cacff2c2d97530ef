// Package models defines the intake submission aggregate and its append-only
// determination history.
package models

import (
	"time"

	"deedflow/internal/determination"
	id "deedflow/pkg/domain"
)

// Submission is one intake record per prospective transaction.
//
// Invariants:
//   - The verdict is immutable once a terminal verdict is set, except by an
//     explicit manual override, which appends a new DeterminationRecord and
//     never rewrites an earlier one.
//   - The automatic determination runs to a terminal verdict at most once;
//     re-evaluation is only permitted while the verdict is undetermined.
type Submission struct {
	ID          id.SubmissionID           `json:"id"`
	Attributes  determination.Attributes  `json:"attributes"`
	ClosingDate time.Time                 `json:"closing_date"`
	CreatedAt   time.Time                 `json:"created_at"`
	// Determinations is ordered oldest first; the last record is
	// authoritative.
	Determinations []DeterminationRecord `json:"determinations"`
}

// DeterminationRecord is one verdict event. Manual overrides carry the
// human-entered justification and the acting staff identity.
type DeterminationRecord struct {
	Verdict       determination.Verdict  `json:"verdict"`
	Reasons       []determination.Reason `json:"reasons"`
	Method        determination.Method   `json:"method"`
	Justification string                 `json:"justification,omitempty"`
	ActorID       string                 `json:"actor_id,omitempty"`
	DeterminedAt  time.Time              `json:"determined_at"`
}

// Current returns the authoritative determination, or nil when none was
// recorded yet.
func (s *Submission) Current() *DeterminationRecord {
	if len(s.Determinations) == 0 {
		return nil
	}
	return &s.Determinations[len(s.Determinations)-1]
}

// Verdict returns the authoritative verdict, defaulting to undetermined for
// a submission with no recorded determination.
func (s *Submission) Verdict() determination.Verdict {
	if cur := s.Current(); cur != nil {
		return cur.Verdict
	}
	return determination.VerdictUndetermined
}

// HasAutomaticTerminal reports whether the automatic rules already produced
// a terminal (non-undetermined) verdict.
func (s *Submission) HasAutomaticTerminal() bool {
	for _, d := range s.Determinations {
		if d.Method == determination.MethodAutomatic && d.Verdict != determination.VerdictUndetermined {
			return true
		}
	}
	return false
}
