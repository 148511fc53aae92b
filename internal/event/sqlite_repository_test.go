package event

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLiteRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

	d, err := repo.SaveDeposit(ctx, Deposit{Destination: "100", Amount: 10, Created: created})
	require.NoError(t, err)
	tr, err := repo.SaveTransfer(ctx, Transfer{Origin: "100", Destination: "300", Amount: 4, Created: created})
	require.NoError(t, err)
	w, err := repo.SaveWithdraw(ctx, Withdraw{Origin: "100", Amount: 1, Created: created})
	require.NoError(t, err)
	require.True(t, d.Seq < tr.Seq && tr.Seq < w.Seq)

	deposits, err := repo.DepositsTo(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, []Deposit{d}, deposits)

	out, err := repo.TransfersFrom(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, []Transfer{tr}, out)

	in, err := repo.TransfersTo(ctx, "300")
	require.NoError(t, err)
	require.Equal(t, []Transfer{tr}, in)

	none, err := repo.TransfersTo(ctx, "100")
	require.NoError(t, err)
	require.Empty(t, none)

	withdrawals, err := repo.WithdrawalsFrom(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, []Withdraw{w}, withdrawals)
}

func TestSQLiteRepository_Reset(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()

	_, err := repo.SaveDeposit(ctx, Deposit{Destination: "a", Amount: 5, Created: time.Now()})
	require.NoError(t, err)
	require.NoError(t, repo.Reset(ctx))
	require.NoError(t, repo.Reset(ctx))

	deposits, err := repo.DepositsTo(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, deposits)
}

func TestSQLiteRepository_MigrateIsRepeatable(t *testing.T) {
	repo := openSQLite(t)
	require.NoError(t, repo.Migrate(context.Background()))
}

func TestSQLiteRepository_Contract(t *testing.T) {
	checkStore(t, openSQLite(t))
}
