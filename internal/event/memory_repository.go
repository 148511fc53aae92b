package event

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu          sync.RWMutex
	seq         uint64
	deposits    []Deposit
	transfers   []Transfer
	withdrawals []Withdraw
}

// NewMemoryRepository constructs a concurrency-safe in-memory event store. It
// lives as long as the process does.
func NewMemoryRepository() Store {
	return &memoryRepository{}
}

func (r *memoryRepository) SaveDeposit(ctx context.Context, d Deposit) (Deposit, error) {
	if err := ctx.Err(); err != nil {
		return Deposit{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	d.Seq = r.seq
	r.deposits = append(r.deposits, d)
	return d, nil
}

func (r *memoryRepository) SaveTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	if err := ctx.Err(); err != nil {
		return Transfer{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.Seq = r.seq
	r.transfers = append(r.transfers, t)
	return t, nil
}

func (r *memoryRepository) SaveWithdraw(ctx context.Context, w Withdraw) (Withdraw, error) {
	if err := ctx.Err(); err != nil {
		return Withdraw{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	w.Seq = r.seq
	r.withdrawals = append(r.withdrawals, w)
	return w, nil
}

func (r *memoryRepository) DepositsTo(_ context.Context, accountID string) ([]Deposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Deposit
	for _, d := range r.deposits {
		if d.Destination == accountID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memoryRepository) TransfersTo(_ context.Context, accountID string) ([]Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transfer
	for _, t := range r.transfers {
		if t.Destination == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryRepository) TransfersFrom(_ context.Context, accountID string) ([]Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transfer
	for _, t := range r.transfers {
		if t.Origin == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryRepository) WithdrawalsFrom(_ context.Context, accountID string) ([]Withdraw, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Withdraw
	for _, w := range r.withdrawals {
		if w.Origin == accountID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *memoryRepository) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deposits = nil
	r.transfers = nil
	r.withdrawals = nil
	return nil
}
