// Package notification provides outbound message dispatch and the
// deduplication ledger that keeps every checkpointed notification
// at-most-once.
package notification

import (
	"context"
	"log/slog"
)

// Message is one outbound notification. Rendering and delivery live behind
// Dispatcher; the core only decides whether a message should go out at all.
type Message struct {
	Recipient string
	Template  string
	Data      map[string]any
}

// Dispatcher delivers messages. Delivery is fire-and-forget from the core's
// perspective: a failed send after the ledger recorded the checkpoint is not
// retried, which is the price of at-most-once.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// LogDispatcher writes messages to the log instead of a provider. Default
// when no real dispatcher is wired.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d *LogDispatcher) Send(ctx context.Context, msg Message) error {
	d.Logger.InfoContext(ctx, "notification dispatched",
		"recipient", msg.Recipient,
		"template", msg.Template,
	)
	return nil
}
