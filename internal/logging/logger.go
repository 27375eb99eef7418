package logging

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

// NewLogger builds a production zap logger writing to stderr.
// encoding is "json" or "console"; empty means json.
func NewLogger(level, encoding string) (*Logger, error) {
	config := zap.NewProductionConfig()

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	if encoding == "console" {
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		config.DisableCaller = true
		config.DisableStacktrace = true
	}
	config.Sampling = nil

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger}, nil
}

func NewNop() *Logger {
	return &Logger{zap.NewNop()}
}

// Operation tags every entry with the operation name and a fresh id so
// the lines of one checkout or merge can be grouped.
func (l *Logger) Operation(name string) *zap.Logger {
	return l.With(
		zap.String("op", name),
		zap.String("op_id", uuid.New().String()),
	)
}
