package logging

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the package-wide logger instance. It is a no-op logger
// until SetLogger or Init installs a real one. Safe for concurrent use
// with SetLogger.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	// Lost CAS means a concurrent SetLogger or Logger won; use theirs.
	logger.CompareAndSwap(nil, zap.NewNop())
	return logger.Load()
}

// SetLogger replaces the package-wide logger.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}

// Init builds a production logger at the given level ("debug", "info",
// "warn", "error") and installs it as the package-wide logger.
func Init(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	SetLogger(l)
	return l, nil
}
