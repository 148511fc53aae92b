// Package storage opens the account and event repositories for the
// configured store driver.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minledger/minledger/internal/account"
	"github.com/minledger/minledger/internal/config"
	"github.com/minledger/minledger/internal/event"
	"github.com/minledger/minledger/internal/infra"
)

// Backend is an opened store. Accounts and Events share one database.
type Backend struct {
	Driver   string
	Accounts account.Repository
	Events   event.Store

	ping  func(context.Context) error
	close func() error
}

// Ping checks that the underlying database answers.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the underlying connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// Open connects to the store named by cfg.StoreDriver and creates its
// tables when missing.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		return &Backend{
			Driver:   config.DriverMemory,
			Accounts: account.NewMemoryRepository(),
			Events:   event.NewMemoryRepository(),
		}, nil

	case config.DriverPostgres:
		pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		accounts := account.NewPostgresRepository(pool)
		events := event.NewPostgresRepository(pool)
		if err := migrate(ctx, accounts, events); err != nil {
			pool.Close()
			return nil, err
		}
		return &Backend{
			Driver:   config.DriverPostgres,
			Accounts: accounts,
			Events:   events,
			ping:     pool.Ping,
			close:    func() error { pool.Close(); return nil },
		}, nil

	case config.DriverSQLite:
		db, err := infra.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		accounts := account.NewSQLiteRepository(db)
		events := event.NewSQLiteRepository(db)
		if err := migrate(ctx, accounts, events); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Backend{
			Driver:   config.DriverSQLite,
			Accounts: accounts,
			Events:   events,
			ping:     db.PingContext,
			close:    db.Close,
		}, nil

	case config.DriverMySQL:
		db, err := infra.NewMySQLClient(ctx, cfg.MySQL, cfg.LogLevel, logger)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB: %w", err)
		}
		accounts := account.NewMySQLRepository(db)
		events := event.NewMySQLRepository(db)
		if err := migrate(ctx, accounts, events); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return &Backend{
			Driver:   config.DriverMySQL,
			Accounts: accounts,
			Events:   events,
			ping:     sqlDB.PingContext,
			close:    sqlDB.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func migrate(ctx context.Context, targets ...migrator) error {
	for _, m := range targets {
		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
