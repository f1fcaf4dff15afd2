package logger

import (
	"fmt"

	"github.com/sanchitvj/sparkify-lake/internal/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "sparkify-etl"

// Module provides the process logger and routes fx's own events through it.
var Module = fx.Options(
	fx.Provide(func(cfg config.Config) (*zap.Logger, error) {
		return New(cfg.Log.Level, cfg.Log.Format, zap.String("env", cfg.Environment), zap.String("version", cfg.Version))
	}),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		l := &fxevent.ZapLogger{Logger: log.Named("fx")}
		l.UseLogLevel(zapcore.DebugLevel)
		return l
	}),
)

// New builds a structured zap.Logger using the provided level (debug, info, warn,
// error) and encoding (json or console).
func New(level, format string, fields ...zap.Field) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	if format == "console" {
		cfg.Encoding = "console"
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level == "" {
		level = "info"
	}

	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	logger = logger.With(append([]zap.Field{zap.String("service", serviceName)}, fields...)...)

	zap.ReplaceGlobals(logger)
	return logger, nil
}
