package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// checkStore runs the behaviour every Store backend must share. repo may hold
// rows from an earlier run; it is reset first.
func checkStore(t *testing.T, repo Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.Reset(ctx))
	t.Cleanup(func() { _ = repo.Reset(context.Background()) })

	created := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

	d, err := repo.SaveDeposit(ctx, Deposit{Destination: "100", Amount: 10, Created: created})
	require.NoError(t, err)
	tr, err := repo.SaveTransfer(ctx, Transfer{Origin: "100", Destination: "300", Amount: 4, Created: created})
	require.NoError(t, err)
	w, err := repo.SaveWithdraw(ctx, Withdraw{Origin: "100", Amount: 1, Created: created.Add(time.Second)})
	require.NoError(t, err)
	require.True(t, d.Seq < tr.Seq && tr.Seq < w.Seq, "seq must be shared across kinds: %d %d %d", d.Seq, tr.Seq, w.Seq)

	deposits, err := repo.DepositsTo(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, []Deposit{d}, deposits)

	out, err := repo.TransfersFrom(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, []Transfer{tr}, out)

	in, err := repo.TransfersTo(ctx, "300")
	require.NoError(t, err)
	require.Equal(t, []Transfer{tr}, in)

	withdrawals, err := repo.WithdrawalsFrom(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, []Withdraw{w}, withdrawals)

	none, err := repo.TransfersTo(ctx, "100")
	require.NoError(t, err)
	require.Empty(t, none)
	noDeposits, err := repo.DepositsTo(ctx, "300")
	require.NoError(t, err)
	require.Empty(t, noDeposits)

	require.NoError(t, repo.Reset(ctx))
	deposits, err = repo.DepositsTo(ctx, "100")
	require.NoError(t, err)
	require.Empty(t, deposits)
	out, err = repo.TransfersFrom(ctx, "100")
	require.NoError(t, err)
	require.Empty(t, out)
	withdrawals, err = repo.WithdrawalsFrom(ctx, "100")
	require.NoError(t, err)
	require.Empty(t, withdrawals)
}
