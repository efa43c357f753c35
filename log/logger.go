package log

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"time"
)

// Trace sits below slog's debug level and crit above its error level.
const (
	levelMaxVerbosity slog.Level = math.MinInt
	LevelTrace        slog.Level = -8
	LevelDebug                   = slog.LevelDebug
	LevelInfo                    = slog.LevelInfo
	LevelWarn                    = slog.LevelWarn
	LevelError                   = slog.LevelError
	LevelCrit         slog.Level = 12
)

var levelNames = map[string]slog.Level{
	"max":          levelMaxVerbosity,
	"maxverbosity": levelMaxVerbosity,
	"trace":        LevelTrace,
	"debug":        LevelDebug,
	"info":         LevelInfo,
	"warn":         LevelWarn,
	"warning":      LevelWarn,
	"error":        LevelError,
	"crit":         LevelCrit,
	"critical":     LevelCrit,
}

func ParseLevel(lvl string) (slog.Level, error) {
	if l, ok := levelNames[strings.ToLower(lvl)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("invalid level: %s", lvl)
}

// Logger tags each record with the module that emitted it.
type Logger struct {
	inner *slog.Logger
}

func NewLogger(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}


func (l *Logger) Enabled(level slog.Level) bool {
	return l.inner.Enabled(context.Background(), level)
}

// write is only called from the package level functions; the recorded source
// is their caller.
func (l *Logger) write(level slog.Level, module string, msg string, attrs ...any) {
	if !l.Enabled(level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	if module != "" {
		r.Add("module", module)
	}
	r.Add(attrs...)
	_ = l.inner.Handler().Handle(context.Background(), r)
}
