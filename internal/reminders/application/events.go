package application

import (
	"context"
	"log/slog"

	"github.com/hourjungle/billingcore/internal/reminders/domain"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/eventbus"
)

// publishEvents drains a task's pending domain events onto the bus. Event
// delivery is best effort: the state change has already been persisted, so a
// publish failure is logged and dropped rather than rolled back.
func publishEvents(ctx context.Context, publisher eventbus.Publisher, logger *slog.Logger, task *domain.ReminderTask) {
	for _, event := range task.DomainEvents() {
		payload, err := eventbus.Encode(event)
		if err != nil {
			logger.Warn("failed to encode domain event",
				"routing_key", event.RoutingKey(),
				"error", err,
			)
			continue
		}
		if err := publisher.Publish(ctx, event.RoutingKey(), payload); err != nil {
			logger.Warn("failed to publish domain event",
				"routing_key", event.RoutingKey(),
				"error", err,
			)
		}
	}
	task.ClearDomainEvents()
}
