package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// newLogger builds a JSON logger writing to path. An empty path or "stderr"
// logs to stderr, which the TUI's alt screen would hide.
func newLogger(level, path string) (*zap.Logger, error) {
	atom, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atom
	cfg.Sampling = nil
	switch path {
	case "", "stderr":
		cfg.OutputPaths = []string{"stderr"}
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{path}
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
