package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QueryLogger routes gorm output through slog.
type QueryLogger struct {
	log           *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewQueryLogger logs failed and slow queries; record-not-found is never an error.
func NewQueryLogger(l *slog.Logger) *QueryLogger {
	return &QueryLogger{log: l, level: logger.Warn, slowThreshold: 200 * time.Millisecond}
}

func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *QueryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, data...)
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, data...)
}

func (l *QueryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, data...)
}

func (l *QueryLogger) printf(ctx context.Context, min logger.LogLevel, lvl slog.Level, msg string, data ...interface{}) {
	if l.level >= min {
		l.log.Log(ctx, lvl, fmt.Sprintf(msg, data...))
	}
}

func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	var lvl slog.Level
	var msg string
	switch {
	case failed && l.level >= logger.Error:
		lvl, msg = slog.LevelError, "query failed"
	case slow && l.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "slow query"
	case l.level >= logger.Info:
		lvl, msg = slog.LevelInfo, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []any{"sql", sql, "rows", rows, "elapsed", elapsed}
	if failed {
		attrs = append(attrs, "error", err.Error())
	}
	l.log.Log(ctx, lvl, msg, attrs...)
}
