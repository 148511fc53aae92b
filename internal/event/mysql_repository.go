package event

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// sqlEvent maps the ledger_events table.
type sqlEvent struct {
	Seq         uint64    `gorm:"column:seq;primaryKey;autoIncrement"`
	Kind        string    `gorm:"column:kind;size:16;not null;index:idx_ledger_events_origin,priority:1;index:idx_ledger_events_destination,priority:1"`
	Origin      string    `gorm:"column:origin;size:191;not null;default:'';index:idx_ledger_events_origin,priority:2"`
	Destination string    `gorm:"column:destination;size:191;not null;default:'';index:idx_ledger_events_destination,priority:2"`
	Amount      int64     `gorm:"column:amount;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;precision:6;not null;autoCreateTime:false"`
}

func (*sqlEvent) TableName() string {
	return "ledger_events"
}

// MySQLRepository stores events in MySQL through GORM.
type MySQLRepository struct {
	db *gorm.DB
}

// NewMySQLRepository wraps a GORM handle.
func NewMySQLRepository(db *gorm.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// Migrate creates or updates the events table.
func (r *MySQLRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&sqlEvent{})
}

func (r *MySQLRepository) insert(ctx context.Context, row *sqlEvent) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// SaveDeposit appends a deposit.
func (r *MySQLRepository) SaveDeposit(ctx context.Context, d Deposit) (Deposit, error) {
	d.Created = d.Created.UTC().Truncate(time.Microsecond)
	row := sqlEvent{Kind: string(KindDeposit), Destination: d.Destination, Amount: d.Amount, CreatedAt: d.Created}
	if err := r.insert(ctx, &row); err != nil {
		return Deposit{}, err
	}
	d.Seq = row.Seq
	return d, nil
}

// SaveTransfer appends a transfer.
func (r *MySQLRepository) SaveTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	t.Created = t.Created.UTC().Truncate(time.Microsecond)
	row := sqlEvent{Kind: string(KindTransfer), Origin: t.Origin, Destination: t.Destination, Amount: t.Amount, CreatedAt: t.Created}
	if err := r.insert(ctx, &row); err != nil {
		return Transfer{}, err
	}
	t.Seq = row.Seq
	return t, nil
}

// SaveWithdraw appends a withdrawal.
func (r *MySQLRepository) SaveWithdraw(ctx context.Context, w Withdraw) (Withdraw, error) {
	w.Created = w.Created.UTC().Truncate(time.Microsecond)
	row := sqlEvent{Kind: string(KindWithdraw), Origin: w.Origin, Amount: w.Amount, CreatedAt: w.Created}
	if err := r.insert(ctx, &row); err != nil {
		return Withdraw{}, err
	}
	w.Seq = row.Seq
	return w, nil
}

func (r *MySQLRepository) find(ctx context.Context, kind Kind, column, accountID string) ([]sqlEvent, error) {
	var rows []sqlEvent
	err := r.db.WithContext(ctx).
		Where("kind = ? AND "+column+" = ?", string(kind), accountID).
		Find(&rows).Error
	return rows, err
}

// DepositsTo lists deposits credited to accountID.
func (r *MySQLRepository) DepositsTo(ctx context.Context, accountID string) ([]Deposit, error) {
	rows, err := r.find(ctx, KindDeposit, "destination", accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Deposit, 0, len(rows))
	for _, row := range rows {
		out = append(out, Deposit{Seq: row.Seq, Destination: row.Destination, Amount: row.Amount, Created: row.CreatedAt.UTC()})
	}
	return out, nil
}

// TransfersTo lists transfers credited to accountID.
func (r *MySQLRepository) TransfersTo(ctx context.Context, accountID string) ([]Transfer, error) {
	return r.transfers(ctx, "destination", accountID)
}

// TransfersFrom lists transfers debited from accountID.
func (r *MySQLRepository) TransfersFrom(ctx context.Context, accountID string) ([]Transfer, error) {
	return r.transfers(ctx, "origin", accountID)
}

func (r *MySQLRepository) transfers(ctx context.Context, column, accountID string) ([]Transfer, error) {
	rows, err := r.find(ctx, KindTransfer, column, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Transfer, 0, len(rows))
	for _, row := range rows {
		out = append(out, Transfer{Seq: row.Seq, Origin: row.Origin, Destination: row.Destination, Amount: row.Amount, Created: row.CreatedAt.UTC()})
	}
	return out, nil
}

// WithdrawalsFrom lists withdrawals debited from accountID.
func (r *MySQLRepository) WithdrawalsFrom(ctx context.Context, accountID string) ([]Withdraw, error) {
	rows, err := r.find(ctx, KindWithdraw, "origin", accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Withdraw, 0, len(rows))
	for _, row := range rows {
		out = append(out, Withdraw{Seq: row.Seq, Origin: row.Origin, Amount: row.Amount, Created: row.CreatedAt.UTC()})
	}
	return out, nil
}

// Reset truncates the events table.
func (r *MySQLRepository) Reset(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("TRUNCATE TABLE ledger_events").Error
}

var _ Store = (*MySQLRepository)(nil)
