package events

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

type watermillSlogAdapter struct {
	logger *slog.Logger
}

var _ watermill.LoggerAdapter = watermillSlogAdapter{}

// NewWatermillLogger adapts a slog logger to watermill's logger interface.
func NewWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	if logger == nil {
		return watermill.NopLogger{}
	}
	return watermillSlogAdapter{logger: logger}
}

func (a watermillSlogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error(msg, append(attrs(fields), slog.Any("error", err))...)
}

func (a watermillSlogAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Info(msg, attrs(fields)...)
}

func (a watermillSlogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, attrs(fields)...)
}

// Trace is mapped to debug, slog has no lower level.
func (a watermillSlogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, attrs(fields)...)
}

func (a watermillSlogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillSlogAdapter{logger: a.logger.With(attrs(fields)...)}
}

func attrs(fields watermill.LogFields) []any {
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}
	return out
}
