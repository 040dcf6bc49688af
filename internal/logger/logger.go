package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface used across the service.
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type logger struct {
	zap *zap.Logger
}

func (l logger) Info(msg string, fields ...zap.Field)  { l.zap.Info(msg, fields...) }
func (l logger) Warn(msg string, fields ...zap.Field)  { l.zap.Warn(msg, fields...) }
func (l logger) Error(msg string, fields ...zap.Field) { l.zap.Error(msg, fields...) }

func (l logger) With(fields ...zap.Field) Logger {
	return logger{zap: l.zap.With(fields...)}
}

// New builds a production zap logger tagged with the service name.
func New(service string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]interface{}{
		"service": service,
	}

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger{zap: l}
}

// NewNop returns a no-op logger for tests.
func NewNop() Logger {
	return logger{zap: zap.NewNop()}
}
