package account

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLiteRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSQLiteRepository_Upsert(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "100")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Save(ctx, Account{ID: "100", Balance: 10})
	require.NoError(t, err)
	_, err = repo.Save(ctx, Account{ID: "100", Balance: 15})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, Account{ID: "100", Balance: 15}, got)

	allocated, err := repo.Save(ctx, Account{})
	require.NoError(t, err)
	require.NotEmpty(t, allocated.ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSQLiteRepository_Reset(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, Account{ID: "a"})
	require.NoError(t, err)
	require.NoError(t, repo.Reset(ctx))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSQLiteRepository_Contract(t *testing.T) {
	checkRepository(t, openSQLite(t))
}
