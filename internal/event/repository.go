package event

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DepositRepository is the append-only log of deposits.
type DepositRepository interface {
	SaveDeposit(ctx context.Context, d Deposit) (Deposit, error)
	DepositsTo(ctx context.Context, accountID string) ([]Deposit, error)
}

// TransferRepository is the append-only log of transfers.
type TransferRepository interface {
	SaveTransfer(ctx context.Context, t Transfer) (Transfer, error)
	TransfersTo(ctx context.Context, accountID string) ([]Transfer, error)
	TransfersFrom(ctx context.Context, accountID string) ([]Transfer, error)
}

// WithdrawRepository is the append-only log of withdrawals.
type WithdrawRepository interface {
	SaveWithdraw(ctx context.Context, w Withdraw) (Withdraw, error)
	WithdrawalsFrom(ctx context.Context, accountID string) ([]Withdraw, error)
}

// Store bundles the three logs of one backend. Save methods assign Seq from a
// single sequence shared by all three logs. Filters return events in no
// particular order.
type Store interface {
	DepositRepository
	TransferRepository
	WithdrawRepository
	// Reset drops every event of every kind.
	Reset(ctx context.Context) error
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_events (
        seq         BIGSERIAL PRIMARY KEY,
        kind        TEXT NOT NULL,
        origin      TEXT NOT NULL DEFAULT '',
        destination TEXT NOT NULL DEFAULT '',
        amount      BIGINT NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS ledger_events_origin_idx ON ledger_events (kind, origin)`,
	`CREATE INDEX IF NOT EXISTS ledger_events_destination_idx ON ledger_events (kind, destination)`,
}

// PostgresRepository stores all three event logs in one PostgreSQL table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds an event store backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the events table when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) insert(ctx context.Context, kind Kind, origin, destination string, amount int64, created time.Time) (uint64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `INSERT INTO ledger_events (kind, origin, destination, amount, created_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING seq`, string(kind), origin, destination, amount, created).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return uint64(seq), nil
}

// SaveDeposit appends a deposit.
func (r *PostgresRepository) SaveDeposit(ctx context.Context, d Deposit) (Deposit, error) {
	d.Created = pgTime(d.Created)
	seq, err := r.insert(ctx, KindDeposit, "", d.Destination, d.Amount, d.Created)
	if err != nil {
		return Deposit{}, err
	}
	d.Seq = seq
	return d, nil
}

// SaveTransfer appends a transfer.
func (r *PostgresRepository) SaveTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	t.Created = pgTime(t.Created)
	seq, err := r.insert(ctx, KindTransfer, t.Origin, t.Destination, t.Amount, t.Created)
	if err != nil {
		return Transfer{}, err
	}
	t.Seq = seq
	return t, nil
}

// SaveWithdraw appends a withdrawal.
func (r *PostgresRepository) SaveWithdraw(ctx context.Context, w Withdraw) (Withdraw, error) {
	w.Created = pgTime(w.Created)
	seq, err := r.insert(ctx, KindWithdraw, w.Origin, "", w.Amount, w.Created)
	if err != nil {
		return Withdraw{}, err
	}
	w.Seq = seq
	return w, nil
}

// DepositsTo lists deposits credited to accountID.
func (r *PostgresRepository) DepositsTo(ctx context.Context, accountID string) ([]Deposit, error) {
	rows, err := r.db.Query(ctx, `SELECT seq, destination, amount, created_at
        FROM ledger_events WHERE kind = $1 AND destination = $2`, string(KindDeposit), accountID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Deposit, error) {
		var d Deposit
		var seq int64
		if err := row.Scan(&seq, &d.Destination, &d.Amount, &d.Created); err != nil {
			return Deposit{}, err
		}
		d.Seq = uint64(seq)
		d.Created = d.Created.UTC()
		return d, nil
	})
}

// TransfersTo lists transfers credited to accountID.
func (r *PostgresRepository) TransfersTo(ctx context.Context, accountID string) ([]Transfer, error) {
	return r.transfers(ctx, "destination", accountID)
}

// TransfersFrom lists transfers debited from accountID.
func (r *PostgresRepository) TransfersFrom(ctx context.Context, accountID string) ([]Transfer, error) {
	return r.transfers(ctx, "origin", accountID)
}

func (r *PostgresRepository) transfers(ctx context.Context, column, accountID string) ([]Transfer, error) {
	// column is one of two constants, never caller input.
	rows, err := r.db.Query(ctx, `SELECT seq, origin, destination, amount, created_at
        FROM ledger_events WHERE kind = $1 AND `+column+` = $2`, string(KindTransfer), accountID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Transfer, error) {
		var t Transfer
		var seq int64
		if err := row.Scan(&seq, &t.Origin, &t.Destination, &t.Amount, &t.Created); err != nil {
			return Transfer{}, err
		}
		t.Seq = uint64(seq)
		t.Created = t.Created.UTC()
		return t, nil
	})
}

// WithdrawalsFrom lists withdrawals debited from accountID.
func (r *PostgresRepository) WithdrawalsFrom(ctx context.Context, accountID string) ([]Withdraw, error) {
	rows, err := r.db.Query(ctx, `SELECT seq, origin, amount, created_at
        FROM ledger_events WHERE kind = $1 AND origin = $2`, string(KindWithdraw), accountID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Withdraw, error) {
		var w Withdraw
		var seq int64
		if err := row.Scan(&seq, &w.Origin, &w.Amount, &w.Created); err != nil {
			return Withdraw{}, err
		}
		w.Seq = uint64(seq)
		w.Created = w.Created.UTC()
		return w, nil
	})
}

// Reset truncates the events table.
func (r *PostgresRepository) Reset(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE ledger_events RESTART IDENTITY`)
	return err
}

// pgTime matches the microsecond resolution of TIMESTAMPTZ so the returned
// event equals what a later read yields.
func pgTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

var _ Store = (*PostgresRepository)(nil)
