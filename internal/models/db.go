package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB 全局数据库连接
var DB *gorm.DB

// InitDB 按配置打开 sqlite 或 postgres，debug 为 true 时记录全部 SQL
func InitDB(cfg config.DatabaseConfig, debug bool) error {
	dialector, err := dialectorFor(cfg.Driver, cfg.DSN)
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.NewGormLogger(debug)})
	if err != nil {
		return fmt.Errorf("open %s: %w", dialector.Name(), err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	pool := cfg.Pool
	if dialector.Name() == "sqlite" {
		// sqlite 单写者
		pool.MaxOpenConns = 1
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	}
	if pool.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping %s: %w", dialector.Name(), err)
	}

	DB = db
	logger.Infow("database_connected", "driver", dialector.Name(), "max_open_conns", pool.MaxOpenConns)
	return nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		if strings.TrimSpace(dsn) == "" {
			dsn = "bookstore.db"
		}
		return sqlite.Open(dsn), nil
	case "postgres", "postgresql":
		if strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("database.dsn is required for postgres")
		}
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// AutoMigrate 建表或补齐字段
func AutoMigrate() error {
	return DB.AutoMigrate(
		&Admin{},
		&User{},
		&Address{},
		&Book{},
		&Cart{},
		&CartItem{},
		&Discount{},
		&Order{},
		&OrderItem{},
		&Shipping{},
		&Payment{},
		&Notification{},
	)
}
