package audit

import (
	"context"

	"deedflow/pkg/requestcontext"
)

// Store is the audit persistence port. The postgres implementation writes
// through the transactional outbox; the memory implementation backs tests
// and dev mode.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subjectType, subjectID string) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit records one event, filling timestamp, actor, and request id from the
// context when unset.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if base.ActorID == "" {
		base.ActorID = requestcontext.ActorID(ctx)
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	return p.store.Append(ctx, base)
}

// List returns the audit trail for one subject, oldest first.
func (p *Publisher) List(ctx context.Context, subjectType, subjectID string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subjectType, subjectID)
}
