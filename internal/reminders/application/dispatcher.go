package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/hourjungle/billingcore/internal/reminders/domain"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/eventbus"
)

// Messenger delivers a rendered reminder text to a customer. The concrete
// transport (LINE push, email, SMS) resolves the customer's channel identity
// itself.
type Messenger interface {
	Send(ctx context.Context, customerID uuid.UUID, text string) error
}

// DispatchResult counts the tasks a dispatch run settled.
type DispatchResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// DispatcherConfig configures the dispatcher's circuit breaker.
type DispatcherConfig struct {
	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive send failures that trips
	// the breaker.
	FailureThreshold uint32
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Dispatcher drives due pending tasks to a terminal state by sending their
// rendered messages over the messaging channel.
type Dispatcher struct {
	tasks     domain.Repository
	messenger Messenger
	publisher eventbus.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	logger    *slog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(
	tasks domain.Repository,
	messenger Messenger,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	config DispatcherConfig,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = eventbus.NewNoopPublisher(logger)
	}

	settings := gobreaker.Settings{
		Name:        "messaging-channel",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Dispatcher{
		tasks:     tasks,
		messenger: messenger,
		publisher: publisher,
		breaker:   gobreaker.NewCircuitBreaker[any](settings),
		logger:    logger,
	}
}

// DispatchDue sends every pending task scheduled on or before now, oldest
// first, up to limit. A send failure marks that task failed; an open circuit
// stops the run and leaves the remaining tasks pending for the next tick.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time, limit int) (DispatchResult, error) {
	var result DispatchResult

	due, err := d.tasks.FindDue(ctx, now, limit)
	if err != nil {
		return result, fmt.Errorf("load due tasks: %w", err)
	}

	for _, task := range due {
		if task.Payload() == nil {
			if err := d.settle(ctx, task, func() error {
				return task.MarkFailed(now, "task has no payload")
			}); err != nil {
				return result, err
			}
			result.Failed++
			continue
		}

		_, sendErr := d.breaker.Execute(func() (any, error) {
			return nil, d.messenger.Send(ctx, task.CustomerID(), task.Payload().Message())
		})

		if errors.Is(sendErr, gobreaker.ErrOpenState) || errors.Is(sendErr, gobreaker.ErrTooManyRequests) {
			d.logger.Warn("messaging channel circuit open, leaving remaining tasks pending",
				"remaining", len(due)-result.Sent-result.Failed,
			)
			return result, nil
		}

		if sendErr != nil {
			d.logger.Error("reminder delivery failed",
				"task_id", task.ID(),
				"task_type", task.TaskType(),
				"error", sendErr,
			)
			if err := d.settle(ctx, task, func() error {
				return task.MarkFailed(now, sendErr.Error())
			}); err != nil {
				return result, err
			}
			result.Failed++
			continue
		}

		if err := d.settle(ctx, task, func() error {
			return task.MarkExecuted(now, "sent")
		}); err != nil {
			return result, err
		}
		result.Sent++
	}

	if result.Sent > 0 || result.Failed > 0 {
		d.logger.Info("reminder dispatch completed",
			"sent", result.Sent,
			"failed", result.Failed,
		)
	}
	return result, nil
}

// settle applies a lifecycle transition, persists it, and publishes the
// resulting events.
func (d *Dispatcher) settle(ctx context.Context, task *domain.ReminderTask, transition func() error) error {
	if err := transition(); err != nil {
		return fmt.Errorf("transition task %s: %w", task.ID(), err)
	}
	if err := d.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("save task %s: %w", task.ID(), err)
	}
	publishEvents(ctx, d.publisher, d.logger, task)
	return nil
}
