// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-wide logger. It is a nop until InitLogger runs.
var L = zap.NewNop()

// InitLogger builds the global logger and installs it as the zap global.
// Development mode is selected with the LINKVET_DEV environment variable.
func InitLogger() {
	logger, err := New(os.Getenv("LINKVET_DEV") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		return
	}
	L = logger
	zap.ReplaceGlobals(L)
}

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = false
	cfg.EncoderConfig.TimeKey = "ts"
	// The progress markers go to stdout; keep log output off that stream.
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}
