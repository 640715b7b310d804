package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Field = zap.Field

type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

func StringField(key, value string) Field { return zap.String(key, value) }

func Int64Field(key string, value int64) Field { return zap.Int64(key, value) }

func ErrorField(key string, err error) Field { return zap.NamedError(key, err) }

func AnyField(key string, value interface{}) Field { return zap.Any(key, value) }

func NewLogger() (Logger, func()) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.InfoLevel
		}),
	)

	log := zap.New(core, zap.AddCaller())

	cleanup := func() {
		log.Sync()
	}

	return log, cleanup
}

// NewNop returns a logger that discards everything. For tests.
func NewNop() Logger {
	return zap.NewNop()
}
