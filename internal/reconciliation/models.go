// Package reconciliation polls the filing channel's acknowledgment feed and
// settles filed reports against it.
package reconciliation

import (
	"context"
	"strings"

	id "deedflow/pkg/domain"
)

// Acknowledgment is one record from the channel's feed. Outcome carries the
// channel's raw code; normalization happens in the poller so unknown codes
// can be counted instead of dropped.
type Acknowledgment struct {
	ReceiptID id.ReceiptID
	Outcome   string
	Reason    string
	// Source names where the record came from, for anomaly reporting.
	Source string
	// Malformed marks records the source could read but not parse.
	Malformed bool
}

// Source is the acknowledgment feed.
//
// Fetch returns the currently pending records; an error means the feed is
// unreachable and the whole tick is skipped. Settle removes one record from
// the feed after the poller has dealt with it, so a record the poller could
// not finish (stale state, store failure) is re-delivered next tick.
type Source interface {
	Fetch(ctx context.Context) ([]Acknowledgment, error)
	Settle(ctx context.Context, ack Acknowledgment) error
}

// NormalizeOutcome maps a channel outcome code onto accepted/rejected.
func NormalizeOutcome(code string) (accepted bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "accepted", "accept", "a":
		return true, true
	case "rejected", "reject", "r":
		return false, true
	}
	return false, false
}
