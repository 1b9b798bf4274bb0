// Package logging wires the ambient slog facade used across the module to a
// zap core, so call sites write plain slog.Info/slog.Warn the way the
// teacher codebase does while the program gets zap's structured, leveled
// encoder and sinks underneath.
package logging

import (
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Options configures the logging core.
type Options struct {
	// Development enables human-readable console output instead of JSON.
	Development bool
	// Level is the minimum enabled level ("debug", "info", "warn", "error").
	Level string
}

// Init builds a *slog.Logger backed by zap and installs it as the default
// logger for the process via slog.SetDefault. Callers elsewhere in the
// module use plain slog.Info/slog.With calls; only cmd/orchestrad calls
// Init.
func Init(opts Options) (*slog.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	var encoder zapcore.Encoder
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Development {
		cfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		encoder = zapcore.NewJSONEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	zlog := zap.New(core)

	logger := slog.New(zapslog.NewHandler(zlog.Core()))
	slog.SetDefault(logger)
	return logger, nil
}
