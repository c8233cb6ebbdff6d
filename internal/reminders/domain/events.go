package domain

import (
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/hourjungle/billingcore/internal/shared/domain"
)

const (
	AggregateType = "ReminderTask"

	RoutingKeyScheduled = "reminders.task.scheduled"
	RoutingKeyCancelled = "reminders.task.cancelled"
	RoutingKeyExecuted  = "reminders.task.executed"
	RoutingKeyFailed    = "reminders.task.failed"
)

// TaskScheduled is emitted when the scanner creates a pending task.
type TaskScheduled struct {
	sharedDomain.BaseEvent
	TaskType    TaskType   `json:"task_type"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	ContractID  *uuid.UUID `json:"contract_id,omitempty"`
	ScheduledOn time.Time  `json:"scheduled_on"`
	Channel     Channel    `json:"channel"`
}

// NewTaskScheduled creates a TaskScheduled event.
func NewTaskScheduled(t *ReminderTask) TaskScheduled {
	return TaskScheduled{
		BaseEvent:   sharedDomain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyScheduled),
		TaskType:    t.TaskType(),
		CustomerID:  t.CustomerID(),
		ContractID:  t.ContractID(),
		ScheduledOn: t.ScheduledOn(),
		Channel:     t.Channel(),
	}
}

// TaskCancelled is emitted when an operator cancels a pending task.
type TaskCancelled struct {
	sharedDomain.BaseEvent
	TaskType TaskType `json:"task_type"`
}

// NewTaskCancelled creates a TaskCancelled event.
func NewTaskCancelled(t *ReminderTask) TaskCancelled {
	return TaskCancelled{
		BaseEvent: sharedDomain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyCancelled),
		TaskType:  t.TaskType(),
	}
}

// TaskExecuted is emitted when the dispatcher delivers the reminder.
type TaskExecuted struct {
	sharedDomain.BaseEvent
	TaskType   TaskType  `json:"task_type"`
	ExecutedAt time.Time `json:"executed_at"`
}

// NewTaskExecuted creates a TaskExecuted event.
func NewTaskExecuted(t *ReminderTask) TaskExecuted {
	var executedAt time.Time
	if t.ExecutedAt() != nil {
		executedAt = *t.ExecutedAt()
	}
	return TaskExecuted{
		BaseEvent:  sharedDomain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyExecuted),
		TaskType:   t.TaskType(),
		ExecutedAt: executedAt,
	}
}

// TaskFailed is emitted when delivery fails.
type TaskFailed struct {
	sharedDomain.BaseEvent
	TaskType TaskType `json:"task_type"`
	Reason   string   `json:"reason"`
}

// NewTaskFailed creates a TaskFailed event.
func NewTaskFailed(t *ReminderTask) TaskFailed {
	return TaskFailed{
		BaseEvent: sharedDomain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyFailed),
		TaskType:  t.TaskType(),
		Reason:    t.Result(),
	}
}
