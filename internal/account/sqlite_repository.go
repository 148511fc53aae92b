package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS ledger_accounts (
        id         TEXT PRIMARY KEY,
        balance    INTEGER NOT NULL DEFAULT 0,
        updated_at INTEGER NOT NULL
    )`

// SQLiteRepository stores accounts in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an open SQLite handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Migrate creates the accounts table when missing.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	return nil
}

// Get fetches an account by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (Account, error) {
	var a Account
	err := r.db.QueryRowContext(ctx, `SELECT id, balance FROM ledger_accounts WHERE id = ?`, id).Scan(&a.ID, &a.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// List returns every account ordered by id.
func (r *SQLiteRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, balance FROM ledger_accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Balance); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Save upserts an account.
func (r *SQLiteRepository) Save(ctx context.Context, a Account) (Account, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO ledger_accounts (id, balance, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET balance = excluded.balance, updated_at = excluded.updated_at`,
		a.ID, a.Balance, time.Now().UTC().UnixMilli())
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// Reset deletes every account.
func (r *SQLiteRepository) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ledger_accounts`)
	return err
}

var _ Repository = (*SQLiteRepository)(nil)
