package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Retry policy for transient storage failures: up to 3 retries with
// exponential backoff starting at 100ms (100, 400, 1600).
const (
	RetryAttempts     = 3
	RetryInitialDelay = 100 * time.Millisecond
	RetryBackoff      = 4
)

// IsTransient reports whether a storage error is worth retrying. Lock
// contention and dropped connections qualify; constraint violations and
// missing rows do not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"connection refused",
		"connection reset",
		"broken pipe",
		"deadlock",
		"too many connections",
		"i/o timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Retry runs fn, retrying transient failures per the package retry policy.
// The last error is returned when all attempts fail.
func Retry(ctx context.Context, fn func() error) error {
	delay := RetryInitialDelay
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) || attempt >= RetryAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= RetryBackoff
	}
}
