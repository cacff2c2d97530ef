// Package audit records every compliance-relevant action as an append-only
// event: determinations, overrides, lifecycle transitions, correction
// requests, notification sends, and reconciliation outcomes. Events are
// persisted through a transactional outbox and published to Kafka by the
// outbox worker.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	Action      Action
	SubjectType string // "submission", "report", "party"
	SubjectID   string
	ActorID     string // staff identity or "system" for sweeps
	Reason      string // override justification, rejection reason text
	RequestID   string
}

// Action enumerates the audited actions.
type Action string

const (
	ActionSubmissionReceived    Action = "submission_received"
	ActionVerdictDetermined     Action = "verdict_determined"
	ActionVerdictOverridden     Action = "verdict_overridden"
	ActionReportCreated         Action = "report_created"
	ActionReportTransitioned    Action = "report_transitioned"
	ActionReportFiled           Action = "report_filed"
	ActionReportAbandoned       Action = "report_abandoned"
	ActionPartyCreated          Action = "party_created"
	ActionPartyLinkIssued       Action = "party_link_issued"
	ActionPartySubmitted        Action = "party_submitted"
	ActionPartyVerified         Action = "party_verified"
	ActionCorrectionRequested   Action = "correction_requested"
	ActionNotificationSent      Action = "notification_sent"
	ActionAcknowledgmentApplied Action = "acknowledgment_applied"
	ActionAnomalyRecorded       Action = "anomaly_recorded"
)
