package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists account snapshots.
type Repository interface {
	Get(ctx context.Context, id string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	// Save upserts. An empty ID gets a freshly allocated one; otherwise the
	// record with that ID is inserted or replaced.
	Save(ctx context.Context, a Account) (Account, error)
	// Reset removes every account.
	Reset(ctx context.Context) error
}

func newID() string {
	return uuid.NewString()
}

var postgresSchema = `CREATE TABLE IF NOT EXISTS ledger_accounts (
        id         TEXT PRIMARY KEY,
        balance    BIGINT NOT NULL DEFAULT 0,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the accounts table when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, postgresSchema)
	return err
}

// Get fetches an account by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, balance FROM ledger_accounts WHERE id = $1`, id).Scan(&a.ID, &a.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// List returns every account ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, balance FROM ledger_accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Account])
}

// Save upserts an account.
func (r *PostgresRepository) Save(ctx context.Context, a Account) (Account, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO ledger_accounts (id, balance, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at`, a.ID, a.Balance)
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// Reset deletes every account.
func (r *PostgresRepository) Reset(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE ledger_accounts`)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
