package infra

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minledger/minledger/internal/config"
)

// NewMySQLClient opens a GORM handle on MySQL, retrying while the server
// starts up, and applies the pool limits from cfg.
func NewMySQLClient(ctx context.Context, cfg config.MySQL, logLevel string, logger *slog.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		// Every ledger write is a single statement.
		SkipDefaultTransaction: true,
		Logger:                 newGormLogger(logLevel),
	}

	var db *gorm.DB
	err := retry(ctx, logger, "mysql", func(ctx context.Context) error {
		// gorm.Open pings on its own, so it has to sit inside the loop.
		opened, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
		if err != nil {
			return err
		}
		sqlDB, err := opened.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return err
		}
		db = opened
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

func newGormLogger(level string) gormlogger.Interface {
	var lvl gormlogger.LogLevel
	switch level {
	case "debug", "info":
		lvl = gormlogger.Info
	case "warn":
		lvl = gormlogger.Warn
	default:
		lvl = gormlogger.Error
	}
	return gormlogger.Default.LogMode(lvl)
}
