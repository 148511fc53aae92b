package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const connectAttempts = 5

var connectBackoff = 2 * time.Second

// NewPostgresPool configures a PostgreSQL connection pool and waits for the
// server to answer a ping, retrying while it starts up.
func NewPostgresPool(ctx context.Context, url string, logger *slog.Logger) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	err = retry(ctx, logger, "postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// retry runs fn until it succeeds, the attempts run out or ctx ends.
func retry(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == connectAttempts {
			break
		}
		if logger != nil {
			logger.WarnContext(ctx, "database not ready",
				slog.String("database", name),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	return fmt.Errorf("after %d attempts: %w", connectAttempts, err)
}
