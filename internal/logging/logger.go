// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the two log channels: a persisted warn+ file and an info+ console.
type Config struct {
	// ErrorFile receives warnings and errors. Empty disables the file channel.
	ErrorFile   string
	Development bool
}

// New builds a zap.Logger that tees info+ lines to stderr and warn+ lines to
// cfg.ErrorFile. The returned cleanup syncs the logger and closes the file.
func New(cfg Config) (*zap.Logger, func(), error) {
	consoleLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Development {
		consoleLevel.SetLevel(zapcore.DebugLevel)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(cfg.Development)), zapcore.Lock(os.Stderr), consoleLevel),
	}

	closeFile := func() {}
	if cfg.ErrorFile != "" {
		if dir := filepath.Dir(cfg.ErrorFile); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, nil, fmt.Errorf("create log dir %s: %w", dir, err)
			}
		}
		sink, closer, err := zap.Open(cfg.ErrorFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open error log %s: %w", cfg.ErrorFile, err)
		}
		closeFile = closer
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(false)),
			sink,
			zap.NewAtomicLevelAt(zapcore.WarnLevel),
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	cleanup := func() {
		// stderr sync fails on some terminals; nothing useful to do about it.
		_ = logger.Sync()
		closeFile()
	}
	return logger, cleanup, nil
}

func encoderConfig(color bool) zapcore.EncoderConfig {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return enc
}
