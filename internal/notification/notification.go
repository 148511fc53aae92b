package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/minledger/minledger/internal/event"
)

// Message describes a committed ledger event for downstream consumers.
type Message struct {
	Kind        event.Kind
	Seq         uint64
	Origin      string
	Destination string
	Amount      int64
	Created     time.Time
}

// FromEvent flattens an event into a message.
func FromEvent(ev event.Event) Message {
	msg := Message{
		Kind:    ev.Kind(),
		Seq:     ev.Sequence(),
		Amount:  ev.Value(),
		Created: ev.CreatedAt(),
	}
	switch e := ev.(type) {
	case event.Deposit:
		msg.Destination = e.Destination
	case event.Transfer:
		msg.Origin = e.Origin
		msg.Destination = e.Destination
	case event.Withdraw:
		msg.Origin = e.Origin
	}
	return msg
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "ledger event committed",
		slog.String("kind", string(message.Kind)),
		slog.Uint64("seq", message.Seq),
		slog.String("origin", message.Origin),
		slog.String("destination", message.Destination),
		slog.Int64("amount", message.Amount),
		slog.Time("created", message.Created),
	)
	return nil
}
