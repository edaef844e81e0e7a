// Package logging wraps go.uber.org/zap the way the teacher's
// observability packages do: a production encoder by default, a
// development encoder when debug is requested, and a NopIfNil guard for
// code that accepts an optional logger (interfaces/http.NewServer).
// pkg/catalog, pkg/adm and pkg/cbm take no logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger: the development encoder (console, caller
// lines, debug level) when debug is true, otherwise the production JSON
// encoder at info level.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return cfg.Build()
}

// NopIfNil returns l unchanged, or a no-op logger if l is nil — the
// "skip if no client configured" defensive pattern the teacher applies
// to its own optional observability dependencies.
func NopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
