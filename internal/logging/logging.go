// Package logging builds the zap loggers used by every contactbook command.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smileynet/contactbook/internal/config"
)

// Output selects where a logger writes.
type Output int

const (
	// Stderr is used by serve and the one-shot commands.
	Stderr Output = iota
	// File is used by the ui command, whose terminal belongs to Bubble Tea.
	File
)

// New builds a production zap logger from cfg. Verbose forces debug level.
func New(cfg config.Log, out Output, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: level %q: %w", cfg.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format != "" {
		zc.Encoding = cfg.Format
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch out {
	case File:
		if cfg.File == "" {
			return nil, fmt.Errorf("logging: log.file is required for file output")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("logging: creating log directory: %w", err)
		}
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	default:
		zc.OutputPaths = []string{"stderr"}
		zc.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: building logger: %w", err)
	}
	return logger, nil
}
