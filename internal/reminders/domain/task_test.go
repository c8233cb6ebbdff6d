package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingTask(t *testing.T) *ReminderTask {
	t.Helper()
	contractID := uuid.New()
	task, err := NewReminderTask(
		TypePaymentReminder,
		uuid.New(),
		&contractID,
		time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC),
		ChannelLINE,
		PaymentReminderPayload{
			CustomerName: "王小明",
			ContractName: "A-101",
			DueDate:      time.Date(2024, time.June, 22, 0, 0, 0, 0, time.UTC),
			Amount:       12000,
			DaysBefore:   7,
		},
	)
	require.NoError(t, err)
	return task
}

func TestNewReminderTask(t *testing.T) {
	task := newPendingTask(t)

	assert.Equal(t, StatusPending, task.Status())
	assert.True(t, task.IsPending())
	assert.Nil(t, task.ExecutedAt())

	// Scheduled-on is normalized to the date.
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), task.ScheduledOn())

	events := task.DomainEvents()
	require.Len(t, events, 1)
	scheduled, ok := events[0].(TaskScheduled)
	require.True(t, ok)
	assert.Equal(t, RoutingKeyScheduled, scheduled.RoutingKey())
	assert.Equal(t, TypePaymentReminder, scheduled.TaskType)
}

func TestNewReminderTask_Validation(t *testing.T) {
	_, err := NewReminderTask(TaskType("bogus"), uuid.New(), nil, time.Now(), ChannelLINE, nil)
	assert.ErrorIs(t, err, ErrInvalidTaskType)

	_, err = NewReminderTask(TypePaymentReminder, uuid.New(), nil, time.Now(), Channel("carrier-pigeon"), nil)
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, err = NewReminderTask(TypePaymentReminder, uuid.New(), nil, time.Now(), ChannelLINE, RenewalReminderPayload{})
	assert.ErrorIs(t, err, ErrPayloadTypeMismatch)
}

func TestReminderTask_Cancel(t *testing.T) {
	task := newPendingTask(t)
	task.ClearDomainEvents()

	require.NoError(t, task.Cancel())
	assert.Equal(t, StatusCancelled, task.Status())

	events := task.DomainEvents()
	require.Len(t, events, 1)
	_, ok := events[0].(TaskCancelled)
	assert.True(t, ok)

	// Terminal states absorb further transitions.
	err := task.Cancel()
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, StatusCancelled, task.Status())
}

func TestReminderTask_MarkExecuted(t *testing.T) {
	task := newPendingTask(t)
	task.ClearDomainEvents()

	at := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, task.MarkExecuted(at, "message_id=abc123"))

	assert.Equal(t, StatusExecuted, task.Status())
	require.NotNil(t, task.ExecutedAt())
	assert.Equal(t, at, *task.ExecutedAt())
	assert.Equal(t, "message_id=abc123", task.Result())

	assert.ErrorIs(t, task.Cancel(), ErrInvalidStateTransition)
	assert.ErrorIs(t, task.MarkFailed(at, "x"), ErrInvalidStateTransition)
}

func TestReminderTask_MarkFailed(t *testing.T) {
	task := newPendingTask(t)
	task.ClearDomainEvents()

	at := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, task.MarkFailed(at, "line api: 429"))

	assert.Equal(t, StatusFailed, task.Status())
	assert.Equal(t, "line api: 429", task.Result())

	events := task.DomainEvents()
	require.Len(t, events, 1)
	failed, ok := events[0].(TaskFailed)
	require.True(t, ok)
	assert.Equal(t, "line api: 429", failed.Reason)

	assert.ErrorIs(t, task.MarkExecuted(at, "x"), ErrInvalidStateTransition)
}

func TestReminderTask_DedupKey(t *testing.T) {
	customerID := uuid.New()
	contractID := uuid.New()

	morning, err := NewReminderTask(TypeRenewalReminder, customerID, &contractID,
		time.Date(2024, time.June, 15, 8, 0, 0, 0, time.UTC), ChannelLINE, nil)
	require.NoError(t, err)
	evening, err := NewReminderTask(TypeRenewalReminder, customerID, &contractID,
		time.Date(2024, time.June, 15, 22, 0, 0, 0, time.UTC), ChannelLINE, nil)
	require.NoError(t, err)

	// Same day, same tuple: identical dedup keys regardless of the clock.
	assert.Equal(t, morning.DedupKey(), evening.DedupKey())

	otherDay, err := NewReminderTask(TypeRenewalReminder, customerID, &contractID,
		time.Date(2024, time.June, 16, 8, 0, 0, 0, time.UTC), ChannelLINE, nil)
	require.NoError(t, err)
	assert.NotEqual(t, morning.DedupKey(), otherDay.DedupKey())
}

func TestRehydrateReminderTask(t *testing.T) {
	id := uuid.New()
	executedAt := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	task := RehydrateReminderTask(
		id,
		TypePaymentReminder,
		uuid.New(),
		nil,
		time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		ChannelLINE,
		nil,
		StatusExecuted,
		&executedAt,
		"ok",
		time.Date(2024, time.June, 14, 3, 0, 0, 0, time.UTC),
		executedAt,
	)

	assert.Equal(t, id, task.ID())
	assert.Equal(t, StatusExecuted, task.Status())
	assert.Empty(t, task.DomainEvents(), "rehydration must not emit events")
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusExecuted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}
