package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows task listings for the admin view.
type ListFilter struct {
	Status     *Status
	TaskType   *TaskType
	CustomerID *uuid.UUID
	From       *time.Time // scheduled-on lower bound, inclusive
	To         *time.Time // scheduled-on upper bound, inclusive
	Limit      int
	Offset     int
}

// TaskStats summarizes task counts for the operations dashboard.
type TaskStats struct {
	PendingTotal  int
	TodayPending  int
	TodayExecuted int
	TodayFailed   int
}

// Repository defines the persistence contract for reminder tasks.
type Repository interface {
	// InsertIfAbsent inserts the task unless a task with the same dedup key
	// already exists in pending or executed state. It reports whether the
	// task was actually inserted; a duplicate is not an error.
	InsertIfAbsent(ctx context.Context, task *ReminderTask) (bool, error)

	// FindByID returns the task, or nil when the id is unknown.
	FindByID(ctx context.Context, id uuid.UUID) (*ReminderTask, error)

	// Save persists status changes of an existing task.
	Save(ctx context.Context, task *ReminderTask) error

	// FindDue returns pending tasks scheduled on or before the given time,
	// oldest first, at most limit of them.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*ReminderTask, error)

	// List returns tasks matching the filter, newest scheduled first.
	List(ctx context.Context, filter ListFilter) ([]*ReminderTask, error)

	// Stats returns task counts as of the given day.
	Stats(ctx context.Context, today time.Time) (TaskStats, error)
}
