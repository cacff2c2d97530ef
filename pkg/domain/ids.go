// Package domain holds typed identifiers and shared domain primitives.
//
// IDs are distinct types over uuid.UUID so the compiler rejects passing a
// PartyID where a ReportID is expected. Construct from external input via the
// Parse helpers, which enforce the invariant that IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "deedflow/pkg/domain-errors"
)

type (
	// SubmissionID identifies an intake submission.
	SubmissionID uuid.UUID
	// ReportID identifies a report derived from a reportable submission.
	ReportID uuid.UUID
	// PartyID identifies a person or entity contributing data to a report.
	PartyID uuid.UUID
)

// ReceiptID is the external filing channel's identifier for a submitted
// filing, assigned at filing time and echoed back on acknowledgments. Its
// format is owned by the external channel, so it stays an opaque string.
type ReceiptID string

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be the nil uuid")
	}
	return u, nil
}

// ParseSubmissionID constructs a SubmissionID from external input.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parseUUID(s, "submission")
	return SubmissionID(u), err
}

// ParseReportID constructs a ReportID from external input.
func ParseReportID(s string) (ReportID, error) {
	u, err := parseUUID(s, "report")
	return ReportID(u), err
}

// ParsePartyID constructs a PartyID from external input.
func ParsePartyID(s string) (PartyID, error) {
	u, err := parseUUID(s, "party")
	return PartyID(u), err
}

// NewSubmissionID returns a fresh random SubmissionID.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

// NewReportID returns a fresh random ReportID.
func NewReportID() ReportID { return ReportID(uuid.New()) }

// NewPartyID returns a fresh random PartyID.
func NewPartyID() PartyID { return PartyID(uuid.New()) }

func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id ReportID) String() string     { return uuid.UUID(id).String() }
func (id PartyID) String() string      { return uuid.UUID(id).String() }

func (id SubmissionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReportID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PartyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// IDs serialize as their canonical UUID string.

func (id SubmissionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ReportID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id PartyID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *SubmissionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubmissionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ReportID) UnmarshalText(b []byte) error {
	parsed, err := ParseReportID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PartyID) UnmarshalText(b []byte) error {
	parsed, err := ParsePartyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
