package event

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Set LEDGER_TEST_MYSQL_DSN (with parseTime=True&loc=UTC) to a scratch
// database to run these tests.
func openMySQL(t *testing.T) *MySQLRepository {
	t.Helper()
	dsn := os.Getenv("LEDGER_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_MYSQL_DSN not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewMySQLRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestMySQLRepository_Store(t *testing.T) {
	checkStore(t, openMySQL(t))
}
