package infra

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/minledger/minledger/internal/config"
	"github.com/minledger/minledger/internal/logging"
)

func TestNewSQLiteDB(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteDB(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected wal journal mode, got %q", mode)
	}

	if _, err := NewSQLiteDB(ctx, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "")
	if err != nil || client != nil {
		t.Fatalf("expected no client without url, got %v, %v", client, err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client, err = NewRedisClient(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()
}

func TestNewPostgresPoolRequiresURL(t *testing.T) {
	if _, err := NewPostgresPool(context.Background(), "", logging.Discard()); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, logging.Discard(), "test", func(context.Context) error {
		calls++
		cancel()
		return errors.New("not ready")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one attempt, got %d", calls)
	}
}

func TestNewMySQLClientRetriesUnreachableServer(t *testing.T) {
	prev := connectBackoff
	connectBackoff = time.Millisecond
	t.Cleanup(func() { connectBackoff = prev })

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	cfg := config.MySQL{Host: "127.0.0.1", Port: 1, User: "ledger", DBName: "ledger", MaxOpenConns: 1, MaxIdleConns: 1}

	db, err := NewMySQLClient(context.Background(), cfg, "silent", logger)
	if err == nil {
		t.Fatalf("expected connection error, got handle %v", db)
	}
	if !strings.Contains(err.Error(), "after 5 attempts") {
		t.Fatalf("expected retries to be exhausted, got %v", err)
	}
	if n := strings.Count(buf.String(), "database not ready"); n != connectAttempts-1 {
		t.Fatalf("expected %d retry logs, got %d: %s", connectAttempts-1, n, buf.String())
	}
}
