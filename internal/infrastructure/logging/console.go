package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	appLogging "github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/config"
)

// ConsoleLogger writes operation logs to stdout, stderr or a file in text or
// JSON form, dropping entries below the configured level
type ConsoleLogger struct {
	logger *slog.Logger
	closer io.Closer
}

// NewConsoleLogger builds a ConsoleLogger from the logging section of the config
func NewConsoleLogger(cfg config.LoggingConfig) (*ConsoleLogger, error) {
	var (
		w      io.Writer
		closer io.Closer
	)
	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	default:
		return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}

	return NewConsoleLoggerTo(w, cfg.Level, cfg.Format, closer), nil
}

// NewConsoleLoggerTo writes to w
func NewConsoleLoggerTo(w io.Writer, level, format string, closer io.Closer) *ConsoleLogger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &ConsoleLogger{logger: slog.New(handler), closer: closer}
}

// Log implements logging.OperationLogger
func (l *ConsoleLogger) Log(level, message string, metadata map[string]interface{}) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		attrs = append(attrs, k, metadata[k])
	}
	l.logger.Log(context.Background(), toSlogLevel(level), message, attrs...)
}

// Close releases the log file, if any
func (l *ConsoleLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func toSlogLevel(level string) slog.Level {
	switch level {
	case appLogging.LevelDebug:
		return slog.LevelDebug
	case appLogging.LevelWarning:
		return slog.LevelWarn
	case appLogging.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
