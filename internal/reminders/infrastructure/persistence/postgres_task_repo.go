// Package persistence provides database implementations for the reminder
// task repository.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hourjungle/billingcore/internal/reminders/domain"
)

// PostgresTaskRepository implements domain.Repository using PostgreSQL.
type PostgresTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(pool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{pool: pool}
}

// InsertIfAbsent inserts the task unless the dedup index already holds an
// equivalent pending or executed task.
func (r *PostgresTaskRepository) InsertIfAbsent(ctx context.Context, task *domain.ReminderTask) (bool, error) {
	payload, err := domain.EncodePayload(task.Payload())
	if err != nil {
		return false, fmt.Errorf("encode payload: %w", err)
	}

	query := `
		INSERT INTO reminder_tasks (
			id, task_type, customer_id, contract_id, scheduled_on,
			channel, payload, status, executed_at, result, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		task.ID(),
		string(task.TaskType()),
		task.CustomerID(),
		task.ContractID(),
		task.ScheduledOn(),
		string(task.Channel()),
		payload,
		string(task.Status()),
		task.ExecutedAt(),
		task.Result(),
		task.CreatedAt(),
		task.UpdatedAt(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindByID returns the task, or nil when the id is unknown.
func (r *PostgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReminderTask, error) {
	query := taskSelect + ` WHERE id = $1`

	task, err := r.scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// Save persists status changes of an existing task.
func (r *PostgresTaskRepository) Save(ctx context.Context, task *domain.ReminderTask) error {
	query := `
		UPDATE reminder_tasks
		SET status = $2, executed_at = $3, result = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		task.ID(),
		string(task.Status()),
		task.ExecutedAt(),
		task.Result(),
		task.UpdatedAt(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// FindDue returns pending tasks scheduled on or before now, oldest first.
func (r *PostgresTaskRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.ReminderTask, error) {
	query := taskSelect + `
		WHERE status = 'pending' AND scheduled_on <= $1
		ORDER BY scheduled_on, created_at
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// List returns tasks matching the filter, newest scheduled first.
func (r *PostgresTaskRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ReminderTask, error) {
	query := taskSelect + ` WHERE 1=1`
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		query += ` AND status = ` + arg(string(*filter.Status))
	}
	if filter.TaskType != nil {
		query += ` AND task_type = ` + arg(string(*filter.TaskType))
	}
	if filter.CustomerID != nil {
		query += ` AND customer_id = ` + arg(*filter.CustomerID)
	}
	if filter.From != nil {
		query += ` AND scheduled_on >= ` + arg(*filter.From)
	}
	if filter.To != nil {
		query += ` AND scheduled_on <= ` + arg(*filter.To)
	}

	query += ` ORDER BY scheduled_on DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// Stats returns task counts as of the given day.
func (r *PostgresTaskRepository) Stats(ctx context.Context, today time.Time) (domain.TaskStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'pending' AND scheduled_on = $1::date),
			COUNT(*) FILTER (WHERE status = 'executed' AND executed_at::date = $1::date),
			COUNT(*) FILTER (WHERE status = 'failed' AND executed_at::date = $1::date)
		FROM reminder_tasks
	`
	var stats domain.TaskStats
	err := r.pool.QueryRow(ctx, query, today).Scan(
		&stats.PendingTotal,
		&stats.TodayPending,
		&stats.TodayExecuted,
		&stats.TodayFailed,
	)
	if err != nil {
		return domain.TaskStats{}, err
	}
	return stats, nil
}

const taskSelect = `
	SELECT id, task_type, customer_id, contract_id, scheduled_on,
	       channel, payload, status, executed_at, result, created_at, updated_at
	FROM reminder_tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresTaskRepository) scanTask(row rowScanner) (*domain.ReminderTask, error) {
	var (
		id          uuid.UUID
		taskType    string
		customerID  uuid.UUID
		contractID  *uuid.UUID
		scheduledOn time.Time
		channel     string
		payload     []byte
		status      string
		executedAt  *time.Time
		result      string
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(
		&id, &taskType, &customerID, &contractID, &scheduledOn,
		&channel, &payload, &status, &executedAt, &result, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	decoded, err := domain.DecodePayload(domain.TaskType(taskType), payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload for task %s: %w", id, err)
	}

	return domain.RehydrateReminderTask(
		id,
		domain.TaskType(taskType),
		customerID,
		contractID,
		scheduledOn,
		domain.Channel(channel),
		decoded,
		domain.Status(status),
		executedAt,
		result,
		createdAt,
		updatedAt,
	), nil
}

func (r *PostgresTaskRepository) scanTasks(rows pgx.Rows) ([]*domain.ReminderTask, error) {
	var tasks []*domain.ReminderTask
	for rows.Next() {
		task, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
