package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kaipakiran/khoj/internal/config"
)

// Setup initializes file-based logging at DefaultLogPath from cfg.Logging.
// level overrides the handler's minimum log level; `khoj --debug` always
// passes "debug" regardless of cfg.Server.LogLevel, which governs
// `khoj serve`'s own stderr verbosity instead.
func Setup(cfg *config.Config, level string) (*slog.Logger, func(), error) {
	return SetupAt(DefaultLogPath(), cfg, level)
}

// SetupAt is Setup with an explicit log file path, used by tests that
// can't write to the real default log directory.
func SetupAt(path string, cfg *config.Config, level string) (*slog.Logger, func(), error) {
	if err := EnsureLogDir(); err != nil {
		return nil, nil, err
	}

	writer, err := NewRotatingWriter(path, cfg.Logging.MaxSizeMB, cfg.Logging.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.Logging.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler)

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}

	return logger, cleanup, nil
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts string level to slog.Level (exported for use by log viewer).
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}
