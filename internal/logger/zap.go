package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultZapLevel = zapcore.InfoLevel

func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newConsoleCore builds a console encoder core writing to w. Timestamps
// are left to journald.
func newConsoleCore(level zapcore.Level, w zapcore.WriteSyncer, lineEnding string) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = ""
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.LineEnding = lineEnding

	encoder := zapcore.NewConsoleEncoder(cfg)
	ws := zapcore.Lock(w)
	return zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(level))
}
