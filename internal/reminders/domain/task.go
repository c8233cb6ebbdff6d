package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/hourjungle/billingcore/internal/shared/domain"
)

var (
	ErrTaskNotFound           = errors.New("reminder task not found")
	ErrInvalidStateTransition = errors.New("invalid task state transition")
	ErrDuplicateTask          = errors.New("an equivalent task is already scheduled")
	ErrInvalidTaskType        = errors.New("invalid task type")
	ErrInvalidChannel         = errors.New("invalid channel")
	ErrPayloadTypeMismatch    = errors.New("payload does not match task type")
)

// TaskType identifies what a reminder task notifies about.
type TaskType string

const (
	TypePaymentReminder TaskType = "payment_reminder"
	TypeRenewalReminder TaskType = "renewal_reminder"
)

// IsValid checks if the task type is known.
func (t TaskType) IsValid() bool {
	return t == TypePaymentReminder || t == TypeRenewalReminder
}

// Channel is the delivery channel for a reminder.
type Channel string

const (
	ChannelLINE  Channel = "line"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// IsValid checks if the channel is known.
func (c Channel) IsValid() bool {
	return c == ChannelLINE || c == ChannelEmail || c == ChannelSMS
}

// Status is the lifecycle state of a reminder task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuted  Status = "executed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusExecuted || s == StatusFailed || s == StatusCancelled
}

// ReminderTask is a scheduled notification to a customer. It is created
// pending by the scanner and driven to a terminal state by the dispatcher,
// or cancelled by an operator while still pending.
type ReminderTask struct {
	sharedDomain.BaseAggregateRoot
	taskType    TaskType
	customerID  uuid.UUID
	contractID  *uuid.UUID // nil for customer-only tasks
	scheduledOn time.Time  // date the reminder should fire
	channel     Channel
	payload     Payload
	status      Status
	executedAt  *time.Time
	result      string
}

// NewReminderTask creates a pending reminder task.
func NewReminderTask(
	taskType TaskType,
	customerID uuid.UUID,
	contractID *uuid.UUID,
	scheduledOn time.Time,
	channel Channel,
	payload Payload,
) (*ReminderTask, error) {
	if !taskType.IsValid() {
		return nil, ErrInvalidTaskType
	}
	if !channel.IsValid() {
		return nil, ErrInvalidChannel
	}
	if payload != nil && payload.TaskType() != taskType {
		return nil, ErrPayloadTypeMismatch
	}

	t := &ReminderTask{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		taskType:          taskType,
		customerID:        customerID,
		contractID:        contractID,
		scheduledOn:       dateOnly(scheduledOn),
		channel:           channel,
		payload:           payload,
		status:            StatusPending,
	}

	t.AddDomainEvent(NewTaskScheduled(t))

	return t, nil
}

// Getters

func (t *ReminderTask) TaskType() TaskType      { return t.taskType }
func (t *ReminderTask) CustomerID() uuid.UUID   { return t.customerID }
func (t *ReminderTask) ContractID() *uuid.UUID  { return t.contractID }
func (t *ReminderTask) ScheduledOn() time.Time  { return t.scheduledOn }
func (t *ReminderTask) Channel() Channel        { return t.channel }
func (t *ReminderTask) Payload() Payload        { return t.payload }
func (t *ReminderTask) Status() Status          { return t.status }
func (t *ReminderTask) ExecutedAt() *time.Time  { return t.executedAt }
func (t *ReminderTask) Result() string          { return t.result }
func (t *ReminderTask) IsPending() bool         { return t.status == StatusPending }

// DedupKey returns the uniqueness tuple: no two tasks may share it while the
// earlier one is pending or executed.
func (t *ReminderTask) DedupKey() DedupKey {
	return DedupKey{
		TaskType:    t.taskType,
		CustomerID:  t.customerID,
		ContractID:  t.contractID,
		ScheduledOn: t.scheduledOn,
	}
}

// Cancel transitions a pending task to cancelled. Operator-initiated only.
func (t *ReminderTask) Cancel() error {
	if t.status != StatusPending {
		return ErrInvalidStateTransition
	}
	t.status = StatusCancelled
	t.Touch()
	t.AddDomainEvent(NewTaskCancelled(t))
	return nil
}

// MarkExecuted records successful delivery, stamping executedAt.
func (t *ReminderTask) MarkExecuted(at time.Time, result string) error {
	if t.status != StatusPending {
		return ErrInvalidStateTransition
	}
	executedAt := at.UTC()
	t.status = StatusExecuted
	t.executedAt = &executedAt
	t.result = result
	t.Touch()
	t.AddDomainEvent(NewTaskExecuted(t))
	return nil
}

// MarkFailed records a delivery failure. No retry is defined here; a
// dispatcher wanting one schedules a fresh task instead of reviving this one.
func (t *ReminderTask) MarkFailed(at time.Time, result string) error {
	if t.status != StatusPending {
		return ErrInvalidStateTransition
	}
	failedAt := at.UTC()
	t.status = StatusFailed
	t.executedAt = &failedAt
	t.result = result
	t.Touch()
	t.AddDomainEvent(NewTaskFailed(t))
	return nil
}

// RehydrateReminderTask recreates a task from persisted state without
// generating events.
func RehydrateReminderTask(
	id uuid.UUID,
	taskType TaskType,
	customerID uuid.UUID,
	contractID *uuid.UUID,
	scheduledOn time.Time,
	channel Channel,
	payload Payload,
	status Status,
	executedAt *time.Time,
	result string,
	createdAt time.Time,
	updatedAt time.Time,
) *ReminderTask {
	return &ReminderTask{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		taskType:    taskType,
		customerID:  customerID,
		contractID:  contractID,
		scheduledOn: dateOnly(scheduledOn),
		channel:     channel,
		payload:     payload,
		status:      status,
		executedAt:  executedAt,
		result:      result,
	}
}

// DedupKey is the tuple that makes repeated daily scans idempotent.
type DedupKey struct {
	TaskType    TaskType
	CustomerID  uuid.UUID
	ContractID  *uuid.UUID
	ScheduledOn time.Time
}

// String renders the key in a canonical comparable form.
func (k DedupKey) String() string {
	contract := "-"
	if k.ContractID != nil {
		contract = k.ContractID.String()
	}
	return string(k.TaskType) + "|" + k.CustomerID.String() + "|" + contract + "|" + k.ScheduledOn.Format(time.DateOnly)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
