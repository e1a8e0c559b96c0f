package database

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger adapts slog to GORM's logger.Interface. Successful queries are
// emitted at Debug, and queries slower than slowQueryThreshold are promoted
// to Warn so indexing runs surface pathological statements without Debug
// logging enabled.
type gormLogger struct{}

// slowQueryThreshold promotes a query's trace entry to Warn.
const slowQueryThreshold = 200 * time.Millisecond

// maxSQLLength bounds the SQL text attached to a log entry. Snippet inserts
// embed full document content, so untruncated statements can run to
// megabytes.
const maxSQLLength = 240

// LogMode is a no-op; level filtering is handled by slog.
func (l gormLogger) LogMode(logger.LogLevel) logger.Interface { return l }

// Info logs informational messages from GORM.
func (l gormLogger) Info(ctx context.Context, msg string, args ...any) {
	slog.InfoContext(ctx, "gorm: "+msg, slog.Any("args", args))
}

// Warn logs warning messages from GORM.
func (l gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	slog.WarnContext(ctx, "gorm: "+msg, slog.Any("args", args))
}

// Error logs error messages from GORM.
func (l gormLogger) Error(ctx context.Context, msg string, args ...any) {
	slog.ErrorContext(ctx, "gorm: "+msg, slog.Any("args", args))
}

func truncateSQL(sql string) string {
	if len(sql) <= maxSQLLength {
		return sql
	}
	return sql[:maxSQLLength] + "..."
}

// Trace is called by GORM after every SQL operation. Real errors are logged
// at Error level. ErrRecordNotFound is the normal "no rows" result from
// .First() and is logged at Debug level alongside successful queries.
func (l gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		slog.ErrorContext(ctx, "sql query failed",
			slog.String("sql", truncateSQL(sql)),
			slog.Int64("rows", rows),
			slog.Float64("duration_ms", float64(elapsed)/float64(time.Millisecond)),
			slog.Any("error", err),
		)
		return
	}

	if elapsed >= slowQueryThreshold {
		sql, rows := fc()
		slog.WarnContext(ctx, "slow sql query",
			slog.String("sql", truncateSQL(sql)),
			slog.Int64("rows", rows),
			slog.Float64("duration_ms", float64(elapsed)/float64(time.Millisecond)),
		)
		return
	}

	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	slog.DebugContext(ctx, "sql query",
		slog.String("sql", truncateSQL(sql)),
		slog.Int64("rows", rows),
		slog.Float64("duration_ms", float64(elapsed)/float64(time.Millisecond)),
	)
}
