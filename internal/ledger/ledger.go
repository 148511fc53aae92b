// Package ledger orchestrates deposits, withdrawals and transfers over the
// event logs and keeps account balance snapshots in step with them.
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound occurs when a withdrawal, transfer origin or balance
	// lookup names an account that does not exist. Nothing is written.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount rejects zero and negative amounts, and amounts that
	// would push a balance out of the int64 range.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidAccountID rejects an empty account identifier.
	ErrInvalidAccountID = errors.New("account id is required")

	// ErrStorage marks a repository failure. Unlike the errors above, the same
	// request may succeed when retried.
	ErrStorage = errors.New("ledger storage failure")
)

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// IsRetryable reports whether err came from the storage layer rather than
// from a rejected request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage)
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}
	return nil
}

func validateIDs(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			return ErrInvalidAccountID
		}
	}
	return nil
}
