// Package logger constructs the structured zap logger threaded through every
// store subsystem.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a sugared logger for the given service at the default info
// level.
func New(service string) *zap.SugaredLogger {
	return NewWithLevel(service, "info")
}

// NewWithLevel builds a sugared logger for the given service at the given
// level ("debug", "info", "warn", "error"). Output goes to stderr so the
// CLI's stdout stays reserved for values. Unknown levels fall back to info.
func NewWithLevel(service, level string) *zap.SugaredLogger {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.InitialFields = map[string]any{"service": service}

	log, err := config.Build()
	if err != nil {
		// Construction only fails on invalid config paths; fall back to a
		// no-op logger rather than failing store startup over logging.
		return zap.NewNop().Sugar()
	}

	return log.Sugar()
}
