// Package models defines report parties, their progress statuses, and the
// role-specific payload union.
package models

import (
	"time"

	"deedflow/internal/determination"
	"deedflow/internal/lifecycle"
	id "deedflow/pkg/domain"
)

// Role is the party's function in the transaction.
type Role string

const (
	RoleTransferee      Role = "transferee"
	RoleTransferor      Role = "transferor"
	RoleBeneficialOwner Role = "beneficial_owner"
	RoleReportingPerson Role = "reporting_person"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTransferee, RoleTransferor, RoleBeneficialOwner, RoleReportingPerson:
		return true
	}
	return false
}

// Status is the party's data-collection progress. Progress is monotonic with
// one deliberate exception: a staff correction request moves a submitted
// party back to in_progress, and that regression is always audited.
type Status string

const (
	StatusPending    Status = "pending"
	StatusLinkSent   Status = "link_sent"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusVerified   Status = "verified"
)

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusLinkSent:   1,
	StatusInProgress: 2,
	StatusSubmitted:  3,
	StatusVerified:   4,
}

// AtLeast reports whether s has progressed to other or beyond.
func (s Status) AtLeast(other Status) bool {
	return statusRank[s] >= statusRank[other]
}

const (
	EventSendLink          lifecycle.Event = "send_link"
	EventOpenLink          lifecycle.Event = "open_link"
	EventSubmit            lifecycle.Event = "submit"
	EventVerify            lifecycle.Event = "verify"
	EventRequestCorrection lifecycle.Event = "request_correction"
)

// Machine returns the party state machine.
func Machine() *lifecycle.Machine[Status] {
	return lifecycle.New("party", map[Status]map[lifecycle.Event]Status{
		StatusPending: {
			EventSendLink: StatusLinkSent,
		},
		StatusLinkSent: {
			// Re-dispatch of an expired link stays in link_sent.
			EventSendLink: StatusLinkSent,
			EventOpenLink: StatusInProgress,
		},
		StatusInProgress: {
			EventSubmit: StatusSubmitted,
		},
		StatusSubmitted: {
			EventVerify:            StatusVerified,
			EventRequestCorrection: StatusInProgress,
		},
	})
}

// Party is one person or entity contributing data to a report.
type Party struct {
	ID       id.PartyID              `json:"id"`
	ReportID id.ReportID             `json:"report_id"`
	Role     Role                    `json:"role"`
	Form     determination.LegalForm `json:"legal_form"`
	Status   Status                  `json:"status"`
	// Required parties gate the report's ready_to_file transition.
	Required bool `json:"required"`
	// Email receives the secure link and the nudges.
	Email         string    `json:"email"`
	LinkExpiresAt time.Time `json:"link_expires_at,omitzero"`
	LinkSentAt    time.Time `json:"link_sent_at,omitzero"`
	Payload        *Payload  `json:"payload,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
