package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hourjungle/billingcore/internal/reminders/domain"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/eventbus"
)

// TaskService exposes the administrative operations on reminder tasks:
// manual creation, cancellation, listing, and stats.
type TaskService struct {
	tasks     domain.Repository
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(tasks domain.Repository, publisher eventbus.Publisher, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = eventbus.NewNoopPublisher(logger)
	}
	return &TaskService{
		tasks:     tasks,
		publisher: publisher,
		logger:    logger,
	}
}

// Create schedules a task manually, outside the daily scan. The same dedup
// rule applies; a conflicting task yields ErrDuplicateTask.
func (s *TaskService) Create(
	ctx context.Context,
	taskType domain.TaskType,
	customerID uuid.UUID,
	contractID *uuid.UUID,
	scheduledOn time.Time,
	channel domain.Channel,
	payload domain.Payload,
) (*domain.ReminderTask, error) {
	task, err := domain.NewReminderTask(taskType, customerID, contractID, scheduledOn, channel, payload)
	if err != nil {
		return nil, err
	}

	inserted, err := s.tasks.InsertIfAbsent(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("insert reminder task: %w", err)
	}
	if !inserted {
		return nil, domain.ErrDuplicateTask
	}

	s.logger.Info("reminder task created manually",
		"task_id", task.ID(),
		"task_type", task.TaskType(),
		"scheduled_on", task.ScheduledOn().Format(time.DateOnly),
	)
	publishEvents(ctx, s.publisher, s.logger, task)
	return task, nil
}

// Cancel cancels a pending task. Unknown ids yield ErrTaskNotFound; tasks in
// a terminal state yield ErrInvalidStateTransition.
func (s *TaskService) Cancel(ctx context.Context, id uuid.UUID) error {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find task %s: %w", id, err)
	}
	if task == nil {
		return domain.ErrTaskNotFound
	}

	if err := task.Cancel(); err != nil {
		return err
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("save task %s: %w", id, err)
	}

	s.logger.Info("reminder task cancelled", "task_id", id)
	publishEvents(ctx, s.publisher, s.logger, task)
	return nil
}

// List returns tasks matching the filter, newest scheduled first.
func (s *TaskService) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ReminderTask, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Stats returns task counts as of the given day.
func (s *TaskService) Stats(ctx context.Context, today time.Time) (domain.TaskStats, error) {
	stats, err := s.tasks.Stats(ctx, today)
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return stats, nil
}
