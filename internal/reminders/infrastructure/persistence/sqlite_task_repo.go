package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hourjungle/billingcore/internal/reminders/domain"
)

// SQLiteTaskRepository implements domain.Repository using SQLite.
type SQLiteTaskRepository struct {
	db *sql.DB
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
func NewSQLiteTaskRepository(db *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{db: db}
}

// InsertIfAbsent inserts the task unless the dedup index already holds an
// equivalent pending or executed task.
func (r *SQLiteTaskRepository) InsertIfAbsent(ctx context.Context, task *domain.ReminderTask) (bool, error) {
	payload, err := domain.EncodePayload(task.Payload())
	if err != nil {
		return false, fmt.Errorf("encode payload: %w", err)
	}

	var payloadValue sql.NullString
	if payload != nil {
		payloadValue = sql.NullString{String: string(payload), Valid: true}
	}
	var contractID sql.NullString
	if task.ContractID() != nil {
		contractID = sql.NullString{String: task.ContractID().String(), Valid: true}
	}
	var executedAt sql.NullString
	if task.ExecutedAt() != nil {
		executedAt = sql.NullString{String: task.ExecutedAt().Format(time.RFC3339), Valid: true}
	}

	query := `
		INSERT OR IGNORE INTO reminder_tasks (
			id, task_type, customer_id, contract_id, scheduled_on,
			channel, payload, status, executed_at, result, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		task.ID().String(),
		string(task.TaskType()),
		task.CustomerID().String(),
		contractID,
		task.ScheduledOn().Format(time.DateOnly),
		string(task.Channel()),
		payloadValue,
		string(task.Status()),
		executedAt,
		task.Result(),
		task.CreatedAt().Format(time.RFC3339),
		task.UpdatedAt().Format(time.RFC3339),
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// FindByID returns the task, or nil when the id is unknown.
func (r *SQLiteTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReminderTask, error) {
	query := sqliteTaskSelect + ` WHERE id = ?`

	task, err := scanSQLiteTask(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// Save persists status changes of an existing task.
func (r *SQLiteTaskRepository) Save(ctx context.Context, task *domain.ReminderTask) error {
	var executedAt sql.NullString
	if task.ExecutedAt() != nil {
		executedAt = sql.NullString{String: task.ExecutedAt().Format(time.RFC3339), Valid: true}
	}

	query := `
		UPDATE reminder_tasks
		SET status = ?, executed_at = ?, result = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		string(task.Status()),
		executedAt,
		task.Result(),
		task.UpdatedAt().Format(time.RFC3339),
		task.ID().String(),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// FindDue returns pending tasks scheduled on or before now, oldest first.
func (r *SQLiteTaskRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.ReminderTask, error) {
	query := sqliteTaskSelect + `
		WHERE status = 'pending' AND scheduled_on <= ?
		ORDER BY scheduled_on, created_at
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, now.UTC().Format(time.DateOnly), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteTasks(rows)
}

// List returns tasks matching the filter, newest scheduled first.
func (r *SQLiteTaskRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ReminderTask, error) {
	query := sqliteTaskSelect + ` WHERE 1=1`
	var args []any

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.TaskType != nil {
		query += ` AND task_type = ?`
		args = append(args, string(*filter.TaskType))
	}
	if filter.CustomerID != nil {
		query += ` AND customer_id = ?`
		args = append(args, filter.CustomerID.String())
	}
	if filter.From != nil {
		query += ` AND scheduled_on >= ?`
		args = append(args, filter.From.UTC().Format(time.DateOnly))
	}
	if filter.To != nil {
		query += ` AND scheduled_on <= ?`
		args = append(args, filter.To.UTC().Format(time.DateOnly))
	}

	query += ` ORDER BY scheduled_on DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteTasks(rows)
}

// Stats returns task counts as of the given day.
func (r *SQLiteTaskRepository) Stats(ctx context.Context, today time.Time) (domain.TaskStats, error) {
	day := today.UTC().Format(time.DateOnly)

	query := `
		SELECT
			SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'pending' AND scheduled_on = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'executed' AND substr(executed_at, 1, 10) = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' AND substr(executed_at, 1, 10) = ? THEN 1 ELSE 0 END)
		FROM reminder_tasks
	`
	var pending, todayPending, todayExecuted, todayFailed sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, day, day, day).Scan(
		&pending, &todayPending, &todayExecuted, &todayFailed,
	)
	if err != nil {
		return domain.TaskStats{}, err
	}

	return domain.TaskStats{
		PendingTotal:  int(pending.Int64),
		TodayPending:  int(todayPending.Int64),
		TodayExecuted: int(todayExecuted.Int64),
		TodayFailed:   int(todayFailed.Int64),
	}, nil
}

const sqliteTaskSelect = `
	SELECT id, task_type, customer_id, contract_id, scheduled_on,
	       channel, payload, status, executed_at, result, created_at, updated_at
	FROM reminder_tasks`

func scanSQLiteTask(row rowScanner) (*domain.ReminderTask, error) {
	var (
		idStr       string
		taskType    string
		custStr     string
		contractStr sql.NullString
		scheduledOn string
		channel     string
		payload     sql.NullString
		status      string
		executedStr sql.NullString
		result      string
		createdStr  string
		updatedStr  string
	)

	err := row.Scan(
		&idStr, &taskType, &custStr, &contractStr, &scheduledOn,
		&channel, &payload, &status, &executedStr, &result, &createdStr, &updatedStr,
	)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid task id in database: %w", err)
	}
	customerID, err := uuid.Parse(custStr)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id in database: %w", err)
	}
	var contractID *uuid.UUID
	if contractStr.Valid {
		parsed, err := uuid.Parse(contractStr.String)
		if err != nil {
			return nil, fmt.Errorf("invalid contract id in database: %w", err)
		}
		contractID = &parsed
	}

	scheduled, err := time.ParseInLocation(time.DateOnly, scheduledOn, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduled_on in database: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at in database: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedStr)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at in database: %w", err)
	}
	var executedAt *time.Time
	if executedStr.Valid {
		parsed, err := time.Parse(time.RFC3339, executedStr.String)
		if err != nil {
			return nil, fmt.Errorf("invalid executed_at in database: %w", err)
		}
		executedAt = &parsed
	}

	var raw []byte
	if payload.Valid {
		raw = []byte(payload.String)
	}
	decoded, err := domain.DecodePayload(domain.TaskType(taskType), raw)
	if err != nil {
		return nil, fmt.Errorf("decode payload for task %s: %w", id, err)
	}

	return domain.RehydrateReminderTask(
		id,
		domain.TaskType(taskType),
		customerID,
		contractID,
		scheduled,
		domain.Channel(channel),
		decoded,
		domain.Status(status),
		executedAt,
		result,
		createdAt,
		updatedAt,
	), nil
}

func scanSQLiteTasks(rows *sql.Rows) ([]*domain.ReminderTask, error) {
	var tasks []*domain.ReminderTask
	for rows.Next() {
		task, err := scanSQLiteTask(rows)
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
