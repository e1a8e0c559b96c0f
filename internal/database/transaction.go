package database

import (
	"context"

	"gorm.io/gorm"
)

// WithTransaction executes fn within a transaction, committing on success
// and rolling back on error or panic.
func WithTransaction(ctx context.Context, db Database, fn func(tx *gorm.DB) error) error {
	return db.Session(ctx).Transaction(fn)
}

// WithRetryableTransaction retries the whole transaction on transient
// failures (sqlite busy, deadlocks, lost connections). fn must be safe to
// re-run from scratch; the wholesale-replace deletes satisfy that.
func WithRetryableTransaction(ctx context.Context, db Database, fn func(tx *gorm.DB) error) error {
	return Retry(ctx, func() error {
		return WithTransaction(ctx, db, fn)
	})
}
