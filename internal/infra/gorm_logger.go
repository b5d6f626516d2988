package infra

import (
	"context"
	"errors"
	"time"

	"flowmaster/internal/config"
	"flowmaster/internal/logger"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// queryLogger 把 GORM 的 SQL 日志桥接到全局 zap。
// 记录未找到不算错误（权限解析对空结果是常态），超过阈值的查询按慢查询告警。
type queryLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newQueryLogger(cfg *config.DatabaseConfig) *queryLogger {
	level := gormlogger.Warn
	switch cfg.LogLevel {
	case "silent":
		level = gormlogger.Silent
	case "error":
		level = gormlogger.Error
	case "info":
		level = gormlogger.Info
	}

	slow := defaultSlowThreshold
	if cfg.SlowThresholdMs > 0 {
		slow = time.Duration(cfg.SlowThresholdMs) * time.Millisecond
	}
	return &queryLogger{level: level, slowThreshold: slow}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *queryLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		logger.Get().Sugar().Infof(msg, args...)
	}
}

func (l *queryLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		logger.Get().Sugar().Warnf(msg, args...)
	}
}

func (l *queryLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		logger.Get().Sugar().Errorf(msg, args...)
	}
}

func (l *queryLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	log := logger.Get().With(
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)

	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound):
		log.Error("SQL 执行失败", zap.Error(err))
	case elapsed >= l.slowThreshold:
		log.Warn("慢查询", zap.Duration("threshold", l.slowThreshold))
	case l.level >= gormlogger.Info:
		log.Debug("SQL")
	}
}
