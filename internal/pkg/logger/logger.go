package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds the process zap logger at the given level. Unknown level
// strings fall back to info.
func New(levelStr string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch strings.ToLower(levelStr) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// SetSlogDefault routes the standard slog logger through the given zap core
// so that library code logging via slog ends up in the same stream.
func SetSlogDefault(l *zap.Logger) {
	handler := zapslog.NewHandler(l.Core(), &zapslog.HandlerOptions{})
	slog.SetDefault(slog.New(handler))
}
