package account

import "errors"

// ErrNotFound is returned by Repository.Get for an unknown id.
var ErrNotFound = errors.New("account not found")

// Account is a balance snapshot. Balance is a cache of the event fold for ID
// and is overwritten after every mutation that touches the account.
type Account struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}
