// Package messaging provides messenger implementations for reminder delivery.
package messaging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogMessenger writes messages to the log instead of a real channel. It
// stands in for the LINE transport in development and dry runs.
type LogMessenger struct {
	logger *slog.Logger
}

// NewLogMessenger creates a messenger that only logs.
func NewLogMessenger(logger *slog.Logger) *LogMessenger {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMessenger{logger: logger}
}

// Send logs the message and reports success.
func (m *LogMessenger) Send(ctx context.Context, customerID uuid.UUID, text string) error {
	m.logger.Info("reminder message (log only)",
		"customer_id", customerID,
		"text", text,
	)
	return nil
}
