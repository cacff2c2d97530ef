// Package models defines the report aggregate and its lifecycle.
package models

import (
	"time"

	"deedflow/internal/lifecycle"
	id "deedflow/pkg/domain"
)

// Status is the report lifecycle state. Transitions are driven exclusively
// through the machine returned by Machine; there is no way to move a report
// out of a terminal status.
type Status string

const (
	StatusDraft                 Status = "draft"
	StatusDeterminationComplete Status = "determination_complete"
	StatusCollecting            Status = "collecting"
	StatusReadyToFile           Status = "ready_to_file"
	StatusFiled                 Status = "filed"
	StatusAccepted              Status = "accepted"
	StatusRejected              Status = "rejected"
	StatusAbandoned             Status = "abandoned"
)

// Terminal reports whether no further transitions exist from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusAbandoned:
		return true
	}
	return false
}

const (
	EventCompleteDetermination lifecycle.Event = "complete_determination"
	EventBeginCollecting       lifecycle.Event = "begin_collecting"
	EventMarkReady             lifecycle.Event = "mark_ready"
	EventFile                  lifecycle.Event = "file"
	EventAccept                lifecycle.Event = "accept"
	EventReject                lifecycle.Event = "reject"
	EventAbandon               lifecycle.Event = "abandon"
)

// Machine returns the report state machine. Abandonment is allowed from any
// pre-filing status; once filed, the only exits are the acknowledgment
// outcomes.
func Machine() *lifecycle.Machine[Status] {
	return lifecycle.New("report", map[Status]map[lifecycle.Event]Status{
		StatusDraft: {
			EventCompleteDetermination: StatusDeterminationComplete,
			EventAbandon:               StatusAbandoned,
		},
		StatusDeterminationComplete: {
			EventBeginCollecting: StatusCollecting,
			EventAbandon:         StatusAbandoned,
		},
		StatusCollecting: {
			EventMarkReady: StatusReadyToFile,
			EventAbandon:   StatusAbandoned,
		},
		StatusReadyToFile: {
			EventFile:    StatusFiled,
			EventAbandon: StatusAbandoned,
		},
		StatusFiled: {
			EventAccept: StatusAccepted,
			EventReject: StatusRejected,
		},
	})
}

// Report tracks one reportable transaction from opening through filing and
// acknowledgment.
type Report struct {
	ID           id.ReportID     `json:"id"`
	SubmissionID id.SubmissionID `json:"submission_id"`
	Status       Status          `json:"status"`
	// FilingDeadline is derived from the closing date at creation and never
	// recomputed.
	FilingDeadline time.Time `json:"filing_deadline"`
	// ReceiptID is assigned by the filing channel when the report is filed
	// and is the key acknowledgments are matched on. Empty before filing.
	ReceiptID id.ReceiptID `json:"receipt_id,omitempty"`
	// RejectionReason carries the channel's reason when the outcome is
	// rejected.
	RejectionReason string    `json:"rejection_reason,omitempty"`
	FiledAt         time.Time `json:"filed_at,omitzero"`
	ResolvedAt      time.Time `json:"resolved_at,omitzero"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
