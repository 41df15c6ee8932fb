package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowThreshold = 200 * time.Millisecond

var _ gormlogger.Interface = gormLogger{}

// gormLogger forwards GORM's logging to a logger.Logger.
//
// Slow queries log at Warn, failing queries at Error and,
// when GORM runs in Info mode, every query at Debug.
// gorm.ErrRecordNotFound is never logged.
type gormLogger struct {
	l     logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newGORMLogger(l logger.Logger, env querykit.Environment) gormLogger {
	level := gormlogger.Warn
	if env.DebugSQL() {
		level = gormlogger.Info
	}

	if sl, ok := l.(logger.SkipLogger); ok {
		// NOTE(querykit): GORM's callbacks sit between the call site and Trace.
		l = sl.AddSkip(2)
	}

	return gormLogger{l: l, level: level, slow: slowThreshold}
}

// LogMode implements gormlogger.Interface.
func (gl gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	gl.level = level
	return gl
}

// Info implements gormlogger.Interface.
func (gl gormLogger) Info(_ context.Context, msg string, args ...any) {
	if gl.level >= gormlogger.Info {
		gl.l.Info(fmt.Sprintf(msg, args...), nil)
	}
}

// Warn implements gormlogger.Interface.
func (gl gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if gl.level >= gormlogger.Warn {
		gl.l.Warn(fmt.Sprintf(msg, args...), nil)
	}
}

// Error implements gormlogger.Interface.
func (gl gormLogger) Error(_ context.Context, msg string, args ...any) {
	if gl.level >= gormlogger.Error {
		gl.l.Error(fmt.Sprintf(msg, args...), nil)
	}
}

// Trace implements gormlogger.Interface.
func (gl gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if gl.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && gl.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		gl.l.Error("query failed", &logger.LogContext{
			Data:  traceData(sql, rows, elapsed),
			Error: err,
		})

	case elapsed > gl.slow && gl.slow != 0 && gl.level >= gormlogger.Warn:
		sql, rows := fc()
		gl.l.Warn(fmt.Sprintf("slow query >= %v", gl.slow), &logger.LogContext{
			Data: traceData(sql, rows, elapsed),
		})

	case gl.level >= gormlogger.Info:
		sql, rows := fc()
		gl.l.Debug("query", &logger.LogContext{Data: traceData(sql, rows, elapsed)})
	}
}

func traceData(sql string, rows int64, elapsed time.Duration) map[string]any {
	return map[string]any{
		"elapsed": elapsed.String(),
		"rows":    rows,
		"sql":     sql,
	}
}
