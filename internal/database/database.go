// Package database provides GORM-backed persistence helpers shared by all
// stores: connection management, the generic repository, query translation,
// transactions, and retry policy.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrUnsupportedDriver indicates the database URL scheme is not supported.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Database wraps a GORM connection with driver awareness.
type Database struct {
	db       *gorm.DB
	dialect  string
	queryTTL time.Duration
}

// NewDatabase opens a database connection from a URL.
// Supported schemes: sqlite:///path/to.db, postgres://..., postgresql://...
func NewDatabase(ctx context.Context, url string) (Database, error) {
	dialector, err := parseDialector(url)
	if err != nil {
		return Database{}, fmt.Errorf("parse database url: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger{},
	})
	if err != nil {
		return Database{}, fmt.Errorf("open database: %w", err)
	}

	d := Database{db: db, dialect: dialector.Name()}

	sqlDB, err := db.DB()
	if err != nil {
		return Database{}, fmt.Errorf("access connection pool: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return Database{}, fmt.Errorf("ping database: %w", err)
	}

	return d, nil
}

// parseDialector resolves a connection URL to a GORM dialector.
func parseDialector(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		path := strings.TrimPrefix(url, "sqlite:///")
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return sqlite.Open(path), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), nil
	default:
		return nil, ErrUnsupportedDriver
	}
}

// GORM returns the underlying GORM handle.
func (d Database) GORM() *gorm.DB {
	return d.db
}

// Session returns a context-bound GORM session for a single logical operation.
func (d Database) Session(ctx context.Context) *gorm.DB {
	return d.db.Session(&gorm.Session{Context: ctx})
}

// IsSQLite reports whether the connection uses the SQLite driver.
func (d Database) IsSQLite() bool {
	return d.dialect == "sqlite"
}

// IsPostgres reports whether the connection uses the Postgres driver.
func (d Database) IsPostgres() bool {
	return d.dialect == "postgres"
}

// ConfigurePool bounds the connection pool.
func (d Database) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)
	return nil
}

// Close closes the underlying connection pool.
func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}
	return sqlDB.Close()
}
