package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_events (
        seq         INTEGER PRIMARY KEY AUTOINCREMENT,
        kind        TEXT NOT NULL,
        origin      TEXT NOT NULL DEFAULT '',
        destination TEXT NOT NULL DEFAULT '',
        amount      INTEGER NOT NULL,
        created_at  INTEGER NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS ledger_events_origin_idx ON ledger_events (kind, origin)`,
	`CREATE INDEX IF NOT EXISTS ledger_events_destination_idx ON ledger_events (kind, destination)`,
}

// SQLiteRepository stores events in SQLite. Timestamps are kept as unix
// nanoseconds so no precision is lost.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an open SQLite handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Migrate creates the events table when missing.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate events: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) insert(ctx context.Context, kind Kind, origin, destination string, amount int64, created time.Time) (uint64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO ledger_events (kind, origin, destination, amount, created_at)
        VALUES (?, ?, ?, ?, ?)`, string(kind), origin, destination, amount, created.UTC().UnixNano())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SaveDeposit appends a deposit.
func (r *SQLiteRepository) SaveDeposit(ctx context.Context, d Deposit) (Deposit, error) {
	d.Created = d.Created.UTC()
	seq, err := r.insert(ctx, KindDeposit, "", d.Destination, d.Amount, d.Created)
	if err != nil {
		return Deposit{}, err
	}
	d.Seq = seq
	return d, nil
}

// SaveTransfer appends a transfer.
func (r *SQLiteRepository) SaveTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	t.Created = t.Created.UTC()
	seq, err := r.insert(ctx, KindTransfer, t.Origin, t.Destination, t.Amount, t.Created)
	if err != nil {
		return Transfer{}, err
	}
	t.Seq = seq
	return t, nil
}

// SaveWithdraw appends a withdrawal.
func (r *SQLiteRepository) SaveWithdraw(ctx context.Context, w Withdraw) (Withdraw, error) {
	w.Created = w.Created.UTC()
	seq, err := r.insert(ctx, KindWithdraw, w.Origin, "", w.Amount, w.Created)
	if err != nil {
		return Withdraw{}, err
	}
	w.Seq = seq
	return w, nil
}

// DepositsTo lists deposits credited to accountID.
func (r *SQLiteRepository) DepositsTo(ctx context.Context, accountID string) ([]Deposit, error) {
	rows, err := r.query(ctx, KindDeposit, "destination", accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Deposit, 0, len(rows))
	for _, row := range rows {
		out = append(out, Deposit{Seq: row.seq, Destination: row.destination, Amount: row.amount, Created: row.created})
	}
	return out, nil
}

// TransfersTo lists transfers credited to accountID.
func (r *SQLiteRepository) TransfersTo(ctx context.Context, accountID string) ([]Transfer, error) {
	return r.transfers(ctx, "destination", accountID)
}

// TransfersFrom lists transfers debited from accountID.
func (r *SQLiteRepository) TransfersFrom(ctx context.Context, accountID string) ([]Transfer, error) {
	return r.transfers(ctx, "origin", accountID)
}

func (r *SQLiteRepository) transfers(ctx context.Context, column, accountID string) ([]Transfer, error) {
	rows, err := r.query(ctx, KindTransfer, column, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Transfer, 0, len(rows))
	for _, row := range rows {
		out = append(out, Transfer{Seq: row.seq, Origin: row.origin, Destination: row.destination, Amount: row.amount, Created: row.created})
	}
	return out, nil
}

// WithdrawalsFrom lists withdrawals debited from accountID.
func (r *SQLiteRepository) WithdrawalsFrom(ctx context.Context, accountID string) ([]Withdraw, error) {
	rows, err := r.query(ctx, KindWithdraw, "origin", accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Withdraw, 0, len(rows))
	for _, row := range rows {
		out = append(out, Withdraw{Seq: row.seq, Origin: row.origin, Amount: row.amount, Created: row.created})
	}
	return out, nil
}

// Reset deletes every stored event.
func (r *SQLiteRepository) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ledger_events`)
	return err
}

type sqliteRow struct {
	seq         uint64
	origin      string
	destination string
	amount      int64
	created     time.Time
}

func (r *SQLiteRepository) query(ctx context.Context, kind Kind, column, accountID string) ([]sqliteRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT seq, origin, destination, amount, created_at
        FROM ledger_events WHERE kind = ? AND `+column+` = ?`, string(kind), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sqliteRow
	for rows.Next() {
		var (
			row     sqliteRow
			seq     int64
			created int64
		)
		if err := rows.Scan(&seq, &row.origin, &row.destination, &row.amount, &created); err != nil {
			return nil, err
		}
		row.seq = uint64(seq)
		row.created = time.Unix(0, created).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

var _ Store = (*SQLiteRepository)(nil)
