// Package balance derives account balances by replaying the event logs.
//
// Nothing here caches a running total: every call re-reads the full history
// of the account and folds it in chronological order.
package balance

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/minledger/minledger/internal/event"
)

// ErrOverflow reports a running total that no longer fits in an int64.
var ErrOverflow = errors.New("balance overflows int64")

// Direction tells whether an entry adds to or takes from the account.
type Direction int

const (
	Credit Direction = iota
	Debit
)

func (d Direction) String() string {
	if d == Debit {
		return "debit"
	}
	return "credit"
}

// Entry is one event seen from the side of a single account.
type Entry struct {
	Event     event.Event
	Direction Direction
	// Signed is the event amount, negated for debits.
	Signed int64
	// Balance is the running total after this entry.
	Balance int64
}

// Engine folds the three event logs into balances.
type Engine struct {
	deposits    event.DepositRepository
	transfers   event.TransferRepository
	withdrawals event.WithdrawRepository
}

// NewEngine builds an engine reading from the given logs.
func NewEngine(deposits event.DepositRepository, transfers event.TransferRepository, withdrawals event.WithdrawRepository) *Engine {
	return &Engine{deposits: deposits, transfers: transfers, withdrawals: withdrawals}
}

// Balance returns the sum of signed amounts over the account's history.
func (e *Engine) Balance(ctx context.Context, accountID string) (int64, error) {
	entries, err := e.Entries(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[len(entries)-1].Balance, nil
}

// Entries returns the account's history ordered by creation time, with
// insertion sequence breaking ties, so events sharing a timestamp are all
// kept.
func (e *Engine) Entries(ctx context.Context, accountID string) ([]Entry, error) {
	deposits, err := e.deposits.DepositsTo(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load deposits: %w", err)
	}
	transfersIn, err := e.transfers.TransfersTo(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load incoming transfers: %w", err)
	}
	transfersOut, err := e.transfers.TransfersFrom(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load outgoing transfers: %w", err)
	}
	withdrawals, err := e.withdrawals.WithdrawalsFrom(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load withdrawals: %w", err)
	}

	entries := make([]Entry, 0, len(deposits)+len(transfersIn)+len(transfersOut)+len(withdrawals))
	for _, d := range deposits {
		entries = append(entries, newEntry(d, Credit))
	}
	for _, t := range transfersIn {
		entries = append(entries, newEntry(t, Credit))
	}
	for _, t := range transfersOut {
		entries = append(entries, newEntry(t, Debit))
	}
	for _, w := range withdrawals {
		entries = append(entries, newEntry(w, Debit))
	}

	slices.SortStableFunc(entries, compareEntries)

	var running int64
	for i := range entries {
		running, err = Add(running, entries[i].Signed)
		if err != nil {
			return nil, fmt.Errorf("account %s at seq %d: %w", accountID, entries[i].Event.Sequence(), err)
		}
		entries[i].Balance = running
	}
	return entries, nil
}

// Add returns total+delta, or ErrOverflow when the sum leaves the int64 range.
func Add(total, delta int64) (int64, error) {
	if (delta > 0 && total > math.MaxInt64-delta) || (delta < 0 && total < math.MinInt64-delta) {
		return 0, ErrOverflow
	}
	return total + delta, nil
}

func newEntry(ev event.Event, dir Direction) Entry {
	signed := ev.Value()
	if dir == Debit {
		signed = -signed
	}
	return Entry{Event: ev, Direction: dir, Signed: signed}
}

// compareEntries orders by (created, seq). A self-transfer appears twice with
// the same seq; its credit sorts first.
func compareEntries(a, b Entry) int {
	if c := a.Event.CreatedAt().Compare(b.Event.CreatedAt()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Event.Sequence(), b.Event.Sequence()); c != 0 {
		return c
	}
	return cmp.Compare(a.Direction, b.Direction)
}
