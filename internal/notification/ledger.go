package notification

import (
	"context"
	"sync"
)

// Kind groups checkpoints by what triggered them.
type Kind string

const (
	KindReminder Kind = "reminder"
	KindNudge    Kind = "nudge"
	KindOutcome  Kind = "outcome"
)

// Ledger is the deduplication record for checkpointed notifications. Record
// atomically claims the (subject, kind, checkpoint) tuple: true means the
// caller owns the send, false means some earlier call already claimed it.
// There is no separate should-send check, so two sweeps racing on the same
// checkpoint cannot both win.
type Ledger interface {
	Record(ctx context.Context, subjectID string, kind Kind, checkpoint string) (bool, error)
}

type ledgerKey struct {
	subjectID  string
	kind       Kind
	checkpoint string
}

// InMemoryLedger is a map-backed Ledger for tests and local runs.
type InMemoryLedger struct {
	mu   sync.Mutex
	seen map[ledgerKey]struct{}
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{seen: make(map[ledgerKey]struct{})}
}

func (l *InMemoryLedger) Record(_ context.Context, subjectID string, kind Kind, checkpoint string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey{subjectID: subjectID, kind: kind, checkpoint: checkpoint}
	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}
