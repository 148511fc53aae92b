package account

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sqlAccount maps the ledger_accounts table.
type sqlAccount struct {
	ID        string `gorm:"column:id;primaryKey;size:191"`
	Balance   int64  `gorm:"column:balance;not null"`
	UpdatedAt int64  `gorm:"column:updated_at;autoUpdateTime:milli"`
}

func (*sqlAccount) TableName() string {
	return "ledger_accounts"
}

// MySQLRepository stores accounts in MySQL through GORM.
type MySQLRepository struct {
	db *gorm.DB
}

// NewMySQLRepository wraps a GORM handle.
func NewMySQLRepository(db *gorm.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// Migrate creates or updates the accounts table.
func (r *MySQLRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&sqlAccount{})
}

// Get fetches an account by id.
func (r *MySQLRepository) Get(ctx context.Context, id string) (Account, error) {
	var row sqlAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return Account{ID: row.ID, Balance: row.Balance}, nil
}

// List returns every account ordered by id.
func (r *MySQLRepository) List(ctx context.Context) ([]Account, error) {
	var rows []sqlAccount
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, Account{ID: row.ID, Balance: row.Balance})
	}
	return out, nil
}

// Save upserts an account.
func (r *MySQLRepository) Save(ctx context.Context, a Account) (Account, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	row := sqlAccount{ID: a.ID, Balance: a.Balance}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// Reset deletes every account.
func (r *MySQLRepository) Reset(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("TRUNCATE TABLE ledger_accounts").Error
}

var _ Repository = (*MySQLRepository)(nil)
