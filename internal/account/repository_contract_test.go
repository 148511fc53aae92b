package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// checkRepository runs the behaviour every Repository backend must share.
// repo may hold rows from an earlier run; it is reset first.
func checkRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.Reset(ctx))
	t.Cleanup(func() { _ = repo.Reset(context.Background()) })

	_, err := repo.Get(ctx, "100")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Save(ctx, Account{ID: "300", Balance: -4})
	require.NoError(t, err)
	_, err = repo.Save(ctx, Account{ID: "100", Balance: 10})
	require.NoError(t, err)
	_, err = repo.Save(ctx, Account{ID: "100", Balance: 15})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, Account{ID: "100", Balance: 15}, got)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []Account{{ID: "100", Balance: 15}, {ID: "300", Balance: -4}}, all)

	allocated, err := repo.Save(ctx, Account{})
	require.NoError(t, err)
	_, err = uuid.Parse(allocated.ID)
	require.NoError(t, err)
	stored, err := repo.Get(ctx, allocated.ID)
	require.NoError(t, err)
	require.Zero(t, stored.Balance)

	require.NoError(t, repo.Reset(ctx))
	all, err = repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
	_, err = repo.Get(ctx, "100")
	require.ErrorIs(t, err, ErrNotFound)
}
