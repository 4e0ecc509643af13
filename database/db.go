// database/db.go - Database Connection (PostgreSQL, SQLite for local dev)
package database

import (
	"errors"
	"fmt"
	"time"

	"mediahub/config"
	"mediahub/logger"
	"mediahub/utils"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// Open connects to the database selected by cfg.DBDriver without touching the global handle.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	case "postgres":
		dialector = postgres.Open(postgresDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DBDriver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// SQLite serialises writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return conn, nil
}

// InitDB opens the configured database, runs migrations and installs it as the global handle.
func InitDB(cfg *config.Config) error {
	log := logger.L().With("component", "database")

	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	log.Info("Database connected", "driver", cfg.DBDriver)

	if err := RunMigrations(conn); err != nil {
		return err
	}
	SetDB(conn)
	return nil
}

func postgresDSN(cfg *config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	host := utils.GetEnv("DB_HOST", "localhost")
	port := utils.GetEnv("DB_PORT", "5432")
	user := utils.GetEnv("DB_USER", "postgres")
	password := utils.GetEnv("DB_PASSWORD", "")
	dbname := utils.GetEnv("DB_NAME", "mediahub")
	sslmode := utils.GetEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func gormLogLevel(cfg *config.Config) gormlogger.LogLevel {
	switch {
	case cfg.AppEnv == "test":
		return gormlogger.Silent
	case cfg.IsProduction():
		return gormlogger.Warn
	default:
		return gormlogger.Info
	}
}

// SetDB installs conn as the global handle returned by GetDB.
func SetDB(conn *gorm.DB) {
	db = conn
}

// GetDB returns the database instance, or nil before InitDB/SetDB.
func GetDB() *gorm.DB {
	return db
}

// CloseDB closes the database connection
func CloseDB() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	logger.L().Info("Database connection closed")
	db = nil
	return nil
}

// ErrNotInitialized is returned by helpers that need the global handle before InitDB ran.
var ErrNotInitialized = errors.New("database not initialized")
