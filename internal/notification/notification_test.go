package notification

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/minledger/minledger/internal/event"
)

func TestFromEvent(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ev   event.Event
		want Message
	}{
		{
			name: "deposit",
			ev:   event.Deposit{Seq: 1, Destination: "100", Amount: 10, Created: created},
			want: Message{Kind: event.KindDeposit, Seq: 1, Destination: "100", Amount: 10, Created: created},
		},
		{
			name: "transfer",
			ev:   event.Transfer{Seq: 2, Origin: "100", Destination: "300", Amount: 15, Created: created},
			want: Message{Kind: event.KindTransfer, Seq: 2, Origin: "100", Destination: "300", Amount: 15, Created: created},
		},
		{
			name: "withdraw",
			ev:   event.Withdraw{Seq: 3, Origin: "100", Amount: 5, Created: created},
			want: Message{Kind: event.KindWithdraw, Seq: 3, Origin: "100", Amount: 5, Created: created},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromEvent(tc.ev); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestLoggerNotifierWritesRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	n := NewLoggerNotifier(logger)

	if err := n.Send(context.Background(), Message{Kind: event.KindDeposit, Destination: "100", Amount: 10}); err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"kind":"deposit"`) || !strings.Contains(out, `"destination":"100"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestLoggerNotifierNilSafe(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("expected nil notifier to be a no-op, got %v", err)
	}
}
