package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/hourjungle/billingcore/internal/reminders/domain"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/migrations"
)

// setupSQLiteTestDB creates an in-memory SQLite database with the schema applied.
func setupSQLiteTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return db
}

func newTask(t *testing.T, scheduledOn time.Time) *domain.ReminderTask {
	t.Helper()
	contractID := uuid.New()
	task, err := domain.NewReminderTask(
		domain.TypePaymentReminder,
		uuid.New(),
		&contractID,
		scheduledOn,
		domain.ChannelLINE,
		domain.PaymentReminderPayload{
			CustomerName: "王小明",
			ContractName: "A-101",
			DueDate:      scheduledOn.AddDate(0, 0, 7),
			Amount:       12000,
			DaysBefore:   7,
		},
	)
	require.NoError(t, err)
	task.ClearDomainEvents()
	return task
}

func TestSQLiteTaskRepository_InsertAndFindByID(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))
	ctx := context.Background()

	scheduledOn := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	task := newTask(t, scheduledOn)

	inserted, err := repo.InsertIfAbsent(ctx, task)
	require.NoError(t, err)
	assert.True(t, inserted)

	found, err := repo.FindByID(ctx, task.ID())
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, task.ID(), found.ID())
	assert.Equal(t, domain.TypePaymentReminder, found.TaskType())
	assert.Equal(t, task.CustomerID(), found.CustomerID())
	require.NotNil(t, found.ContractID())
	assert.Equal(t, *task.ContractID(), *found.ContractID())
	assert.Equal(t, scheduledOn, found.ScheduledOn())
	assert.Equal(t, domain.StatusPending, found.Status())

	payload, ok := found.Payload().(domain.PaymentReminderPayload)
	require.True(t, ok)
	assert.Equal(t, int64(12000), payload.Amount)
	assert.Equal(t, "王小明", payload.CustomerName)
}

func TestSQLiteTaskRepository_FindByIDUnknown(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))

	found, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSQLiteTaskRepository_DedupOnInsert(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))
	ctx := context.Background()

	scheduledOn := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	task := newTask(t, scheduledOn)

	inserted, err := repo.InsertIfAbsent(ctx, task)
	require.NoError(t, err)
	require.True(t, inserted)

	// Same dedup tuple under a fresh id: ignored.
	duplicate, err := domain.NewReminderTask(
		task.TaskType(), task.CustomerID(), task.ContractID(),
		scheduledOn, domain.ChannelLINE, nil,
	)
	require.NoError(t, err)

	inserted, err = repo.InsertIfAbsent(ctx, duplicate)
	require.NoError(t, err)
	assert.False(t, inserted)

	// A different day is a different tuple.
	nextDay, err := domain.NewReminderTask(
		task.TaskType(), task.CustomerID(), task.ContractID(),
		scheduledOn.AddDate(0, 0, 1), domain.ChannelLINE, nil,
	)
	require.NoError(t, err)

	inserted, err = repo.InsertIfAbsent(ctx, nextDay)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestSQLiteTaskRepository_CancelledTaskReleasesDedup(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))
	ctx := context.Background()

	scheduledOn := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	task := newTask(t, scheduledOn)

	inserted, err := repo.InsertIfAbsent(ctx, task)
	require.NoError(t, err)
	require.True(t, inserted)

	require.NoError(t, task.Cancel())
	require.NoError(t, repo.Save(ctx, task))

	replacement, err := domain.NewReminderTask(
		task.TaskType(), task.CustomerID(), task.ContractID(),
		scheduledOn, domain.ChannelLINE, nil,
	)
	require.NoError(t, err)

	inserted, err = repo.InsertIfAbsent(ctx, replacement)
	require.NoError(t, err)
	assert.True(t, inserted, "cancelling must free the dedup tuple")
}

func TestSQLiteTaskRepository_SaveLifecycle(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))
	ctx := context.Background()

	task := newTask(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC))
	_, err := repo.InsertIfAbsent(ctx, task)
	require.NoError(t, err)

	executedAt := time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, task.MarkExecuted(executedAt, "sent"))
	require.NoError(t, repo.Save(ctx, task))

	found, err := repo.FindByID(ctx, task.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domain.StatusExecuted, found.Status())
	require.NotNil(t, found.ExecutedAt())
	assert.Equal(t, executedAt, found.ExecutedAt().UTC())
	assert.Equal(t, "sent", found.Result())
}

func TestSQLiteTaskRepository_SaveUnknownTask(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))

	task := newTask(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC))
	err := repo.Save(context.Background(), task)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestSQLiteTaskRepository_FindDue(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))
	ctx := context.Background()
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	overdue := newTask(t, now.AddDate(0, 0, -2))
	dueToday := newTask(t, now)
	future := newTask(t, now.AddDate(0, 0, 3))
	executed := newTask(t, now.AddDate(0, 0, -1))

	for _, task := range []*domain.ReminderTask{overdue, dueToday, future, executed} {
		_, err := repo.InsertIfAbsent(ctx, task)
		require.NoError(t, err)
	}
	require.NoError(t, executed.MarkExecuted(now, "sent"))
	require.NoError(t, repo.Save(ctx, executed))

	due, err := repo.FindDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, overdue.ID(), due[0].ID(), "oldest first")
	assert.Equal(t, dueToday.ID(), due[1].ID())

	limited, err := repo.FindDue(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, overdue.ID(), limited[0].ID())
}

func TestSQLiteTaskRepository_List(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))
	ctx := context.Background()

	scheduledOn := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	payment := newTask(t, scheduledOn)
	_, err := repo.InsertIfAbsent(ctx, payment)
	require.NoError(t, err)

	renewal, err := domain.NewReminderTask(
		domain.TypeRenewalReminder, uuid.New(), nil,
		scheduledOn.AddDate(0, 0, 1), domain.ChannelLINE, nil,
	)
	require.NoError(t, err)
	_, err = repo.InsertIfAbsent(ctx, renewal)
	require.NoError(t, err)

	all, err := repo.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, renewal.ID(), all[0].ID(), "newest scheduled first")

	renewalType := domain.TypeRenewalReminder
	filtered, err := repo.List(ctx, domain.ListFilter{TaskType: &renewalType})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, renewal.ID(), filtered[0].ID())

	customerID := payment.CustomerID()
	byCustomer, err := repo.List(ctx, domain.ListFilter{CustomerID: &customerID})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, payment.ID(), byCustomer[0].ID())
}

func TestSQLiteTaskRepository_Stats(t *testing.T) {
	repo := NewSQLiteTaskRepository(setupSQLiteTestDB(t))
	ctx := context.Background()
	today := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	pendingToday := newTask(t, today)
	pendingLater := newTask(t, today.AddDate(0, 0, 5))
	executedToday := newTask(t, today.AddDate(0, 0, -1))
	failedToday := newTask(t, today.AddDate(0, 0, -1))

	for _, task := range []*domain.ReminderTask{pendingToday, pendingLater, executedToday, failedToday} {
		_, err := repo.InsertIfAbsent(ctx, task)
		require.NoError(t, err)
	}

	executedAt := today.Add(9 * time.Hour)
	require.NoError(t, executedToday.MarkExecuted(executedAt, "sent"))
	require.NoError(t, repo.Save(ctx, executedToday))
	require.NoError(t, failedToday.MarkFailed(executedAt, "line api: 500"))
	require.NoError(t, repo.Save(ctx, failedToday))

	stats, err := repo.Stats(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStats{
		PendingTotal:  2,
		TodayPending:  1,
		TodayExecuted: 1,
		TodayFailed:   1,
	}, stats)
}
