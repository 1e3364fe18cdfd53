package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raysh454/design-review/internal/interfaces"
)

// ZapLogger adapts a *zap.SugaredLogger to interfaces.Logger.
type ZapLogger struct {
	l *zap.SugaredLogger
}

// New builds a production JSON logger at the given level ("debug",
// "info", "warn", "error"). An empty level defaults to "info".
func New(level string) (*ZapLogger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{l: z.Sugar()}, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *ZapLogger {
	return &ZapLogger{l: zap.NewNop().Sugar()}
}

func toArgs(fields []interfaces.Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

func (z *ZapLogger) Debug(msg string, fields ...interfaces.Field) {
	z.l.Debugw(msg, toArgs(fields)...)
}

func (z *ZapLogger) Info(msg string, fields ...interfaces.Field) {
	z.l.Infow(msg, toArgs(fields)...)
}

func (z *ZapLogger) Warn(msg string, fields ...interfaces.Field) {
	z.l.Warnw(msg, toArgs(fields)...)
}

func (z *ZapLogger) Error(msg string, fields ...interfaces.Field) {
	z.l.Errorw(msg, toArgs(fields)...)
}

func (z *ZapLogger) With(fields ...interfaces.Field) interfaces.Logger {
	return &ZapLogger{l: z.l.With(toArgs(fields)...)}
}

// Sync flushes any buffered log entries. Call before process exit.
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}
