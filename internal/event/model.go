package event

import "time"

// Kind names an event type on the wire and in storage.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindTransfer Kind = "transfer"
	KindWithdraw Kind = "withdraw"
)

// Event is an immutable ledger fact. The set of implementations is closed:
// only Deposit, Transfer and Withdraw satisfy it.
type Event interface {
	Kind() Kind
	Sequence() uint64
	CreatedAt() time.Time
	Value() int64
	sealed()
}

// Deposit credits Destination with Amount.
type Deposit struct {
	Seq         uint64
	Destination string
	Amount      int64
	Created     time.Time
}

// Transfer moves Amount from Origin to Destination as a single fact.
type Transfer struct {
	Seq         uint64
	Origin      string
	Destination string
	Amount      int64
	Created     time.Time
}

// Withdraw debits Origin by Amount.
type Withdraw struct {
	Seq     uint64
	Origin  string
	Amount  int64
	Created time.Time
}

func (Deposit) Kind() Kind             { return KindDeposit }
func (d Deposit) Sequence() uint64     { return d.Seq }
func (d Deposit) CreatedAt() time.Time { return d.Created }
func (d Deposit) Value() int64         { return d.Amount }
func (Deposit) sealed()                {}

func (Transfer) Kind() Kind             { return KindTransfer }
func (t Transfer) Sequence() uint64     { return t.Seq }
func (t Transfer) CreatedAt() time.Time { return t.Created }
func (t Transfer) Value() int64         { return t.Amount }
func (Transfer) sealed()                {}

func (Withdraw) Kind() Kind             { return KindWithdraw }
func (w Withdraw) Sequence() uint64     { return w.Seq }
func (w Withdraw) CreatedAt() time.Time { return w.Created }
func (w Withdraw) Value() int64         { return w.Amount }
func (Withdraw) sealed()                {}

// ParseKind validates a wire value.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindDeposit, KindTransfer, KindWithdraw:
		return k, true
	default:
		return "", false
	}
}
