package logging

import "context"

// Log levels understood by every OperationLogger
const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// OperationLogger records what commands and the sweeper do
type OperationLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger OperationLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) OperationLogger {
	if logger, ok := ctx.Value(loggerKey).(OperationLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {}

// MultiLogger fans a log call out to several loggers
type MultiLogger []OperationLogger

func (m MultiLogger) Log(level, message string, metadata map[string]interface{}) {
	for _, l := range m {
		if l != nil {
			l.Log(level, message, metadata)
		}
	}
}
