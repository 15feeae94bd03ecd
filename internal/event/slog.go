package event

import (
	"context"
	"log/slog"
)

// SlogSink forwards events to a structured logger at debug level.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink logging through logger, or slog.Default() when
// logger is nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Write implements Sink.
func (s *SlogSink) Write(e Event) {
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "event",
		slog.Int64("seq", e.Seq),
		slog.Duration("at", e.At),
		slog.String("engine", e.Engine),
		slog.String("kind", e.Kind),
		slog.Int("actor", e.Actor),
		slog.String("phase", e.Phase),
		slog.Int("waiting", e.Waiting),
		slog.Int("readers", e.Readers),
	)
}
