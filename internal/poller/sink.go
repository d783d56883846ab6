package poller

import (
	"context"

	"github.com/go-sscp/go-sscp/logger"
)

// LogSink writes changed samples to a logger.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a sink logging at info level to l.
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{logger: l}
}

// Publish logs sample. It never fails.
func (s *LogSink) Publish(_ context.Context, sample Sample) error {
	s.logger.Info("value changed",
		"name", sample.Name,
		"uid", sample.Variable.UID,
		"type", sample.Variable.Type,
		"value", sample.Value,
	)

	return nil
}
