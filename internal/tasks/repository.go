package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskpilot-app/taskpilot/internal/assistant"
)

// ErrNotFound is returned when a task ID does not resolve to a visible row.
var ErrNotFound = errors.New("task not found")

const taskColumns = `id, description, due_date, priority, repeat_frequency, custom_repeat_days,
	repeat_until, completed, completed_at, created_at, deleted_at, snoozed_until, snooze_duration`

// Repository is the task persistence surface. It embeds assistant.Store so
// the chat dispatcher and the REST handlers share one implementation.
type Repository interface {
	assistant.Store

	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	Update(ctx context.Context, t *Task) error

	ListForDate(ctx context.Context, day time.Time, sortBy string) ([]Task, error)
	ListActive(ctx context.Context) ([]Task, error)
	ListForMonth(ctx context.Context, year int, month time.Month) ([]Task, error)
	ListDueNow(ctx context.Context, now time.Time) ([]Task, error)

	Complete(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDeleteByID(ctx context.Context, id uuid.UUID, at time.Time) error

	ListCompleted(ctx context.Context) ([]Task, error)
	SoftDeleteCompleted(ctx context.Context, at time.Time) (int64, error)

	ListDeleted(ctx context.Context) ([]Task, error)
	Restore(ctx context.Context, id uuid.UUID) error
	RestoreAll(ctx context.Context) (int64, error)
	Purge(ctx context.Context, id uuid.UUID) error
	PurgeAll(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Description, t.DueDate, t.Priority, t.RepeatFrequency, t.CustomRepeatDays,
		t.RepeatUntil, t.Completed, t.CompletedAt, t.CreatedAt, t.DeletedAt, t.SnoozedUntil, t.SnoozeDuration)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying task by id: %w", err)
	}
	return t, nil
}

func (r *postgresRepository) Update(ctx context.Context, t *Task) error {
	query := `
		UPDATE tasks
		SET description = $2, due_date = $3, priority = $4,
		    repeat_frequency = $5, custom_repeat_days = $6, repeat_until = $7
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query,
		t.ID, t.Description, t.DueDate, t.Priority, t.RepeatFrequency, t.CustomRepeatDays, t.RepeatUntil)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ListForDate(ctx context.Context, day time.Time, sortBy string) ([]Task, error) {
	order := "due_date ASC"
	if sortBy == "priority" {
		order = `CASE priority
			WHEN 'priority-high' THEN 0
			WHEN 'priority-medium' THEN 1
			ELSE 2 END, due_date ASC`
	}

	start, end := dayBounds(day)
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND due_date >= $1 AND due_date < $2
		ORDER BY ` + order

	return r.queryTasks(ctx, query, start, end)
}

func (r *postgresRepository) ListActive(ctx context.Context) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND completed = FALSE
		ORDER BY due_date ASC`
	return r.queryTasks(ctx, query)
}

func (r *postgresRepository) ListForMonth(ctx context.Context, year int, month time.Month) ([]Task, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND due_date >= $1 AND due_date < $2
		ORDER BY due_date ASC`
	return r.queryTasks(ctx, query, start, end)
}

func (r *postgresRepository) ListDueNow(ctx context.Context, now time.Time) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND completed = FALSE
		  AND due_date <= $1
		  AND (snoozed_until IS NULL OR snoozed_until <= $1)
		ORDER BY CASE priority
			WHEN 'priority-high' THEN 0
			WHEN 'priority-medium' THEN 1
			ELSE 2 END, due_date ASC`
	return r.queryTasks(ctx, query, now)
}

func (r *postgresRepository) Complete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE tasks SET completed = TRUE, completed_at = $2
		WHERE id = $1 AND deleted_at IS NULL AND completed = FALSE`

	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("completing task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) SoftDeleteByID(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE tasks SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("soft-deleting task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ListCompleted(ctx context.Context) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND completed = TRUE
		ORDER BY completed_at DESC NULLS LAST`
	return r.queryTasks(ctx, query)
}

func (r *postgresRepository) SoftDeleteCompleted(ctx context.Context, at time.Time) (int64, error) {
	query := `UPDATE tasks SET deleted_at = $1 WHERE deleted_at IS NULL AND completed = TRUE`

	tag, err := r.pool.Exec(ctx, query, at)
	if err != nil {
		return 0, fmt.Errorf("soft-deleting completed tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) ListDeleted(ctx context.Context) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC`
	return r.queryTasks(ctx, query)
}

// Restore clears deletion and any completion state so the task comes back
// active.
func (r *postgresRepository) Restore(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tasks SET deleted_at = NULL, completed = FALSE, completed_at = NULL
		WHERE id = $1 AND deleted_at IS NOT NULL`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("restoring task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) RestoreAll(ctx context.Context) (int64, error) {
	query := `
		UPDATE tasks SET deleted_at = NULL, completed = FALSE, completed_at = NULL
		WHERE deleted_at IS NOT NULL`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("restoring all tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) Purge(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND deleted_at IS NOT NULL`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("purging task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) PurgeAll(ctx context.Context) (int64, error) {
	query := `DELETE FROM tasks WHERE deleted_at IS NOT NULL`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("purging all tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- assistant.Store implementation ---

func (r *postgresRepository) Insert(ctx context.Context, description string, due time.Time, priority string, createdAt time.Time) (uuid.UUID, error) {
	t := &Task{
		ID:          uuid.New(),
		Description: description,
		DueDate:     due,
		Priority:    priority,
		CreatedAt:   createdAt,
	}
	if err := r.Create(ctx, t); err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

func (r *postgresRepository) CompleteMatching(ctx context.Context, substr string, at time.Time) (int64, error) {
	query := `
		UPDATE tasks SET completed = TRUE, completed_at = $2
		WHERE deleted_at IS NULL AND completed = FALSE
		  AND description ILIKE '%' || $1 || '%'`

	tag, err := r.pool.Exec(ctx, query, substr, at)
	if err != nil {
		return 0, fmt.Errorf("completing matching tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) TasksOn(ctx context.Context, day time.Time) ([]assistant.Task, error) {
	start, end := dayBounds(day)
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND due_date >= $1 AND due_date < $2
		ORDER BY due_date ASC`

	tasks, err := r.queryTasks(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	return toAssistantTasks(tasks), nil
}

func (r *postgresRepository) EarliestMatching(ctx context.Context, substr string) (*assistant.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND completed = FALSE
		  AND description ILIKE '%' || $1 || '%'
		ORDER BY due_date ASC
		LIMIT 1`

	t, err := scanTask(r.pool.QueryRow(ctx, query, substr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying earliest matching task: %w", err)
	}
	at := toAssistantTask(*t)
	return &at, nil
}

func (r *postgresRepository) SetDueDate(ctx context.Context, id uuid.UUID, due time.Time) error {
	query := `UPDATE tasks SET due_date = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, due)
	if err != nil {
		return fmt.Errorf("setting due date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) SetSnooze(ctx context.Context, id uuid.UUID, due, snoozedUntil time.Time, duration string) error {
	query := `
		UPDATE tasks SET due_date = $2, snoozed_until = $3, snooze_duration = $4
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, due, snoozedUntil, duration)
	if err != nil {
		return fmt.Errorf("setting snooze: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) SoftDeleteMatching(ctx context.Context, substr string, at time.Time) (int64, error) {
	query := `
		UPDATE tasks SET deleted_at = $2
		WHERE deleted_at IS NULL AND description ILIKE '%' || $1 || '%'`

	tag, err := r.pool.Exec(ctx, query, substr, at)
	if err != nil {
		return 0, fmt.Errorf("soft-deleting matching tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) ActiveTasksOn(ctx context.Context, day time.Time) ([]assistant.Task, error) {
	start, end := dayBounds(day)
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND completed = FALSE
		  AND due_date >= $1 AND due_date < $2
		ORDER BY due_date ASC`

	tasks, err := r.queryTasks(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	return toAssistantTasks(tasks), nil
}

// --- helpers ---

func (r *postgresRepository) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task rows: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	var repeatFrequency, snoozeDuration *string
	err := row.Scan(
		&t.ID, &t.Description, &t.DueDate, &t.Priority, &repeatFrequency, &t.CustomRepeatDays,
		&t.RepeatUntil, &t.Completed, &t.CompletedAt, &t.CreatedAt, &t.DeletedAt, &t.SnoozedUntil, &snoozeDuration)
	if err != nil {
		return nil, err
	}
	if repeatFrequency != nil {
		t.RepeatFrequency = *repeatFrequency
	}
	if snoozeDuration != nil {
		t.SnoozeDuration = *snoozeDuration
	}
	return t, nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

func toAssistantTask(t Task) assistant.Task {
	return assistant.Task{
		ID:          t.ID,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		Completed:   t.Completed,
	}
}

func toAssistantTasks(ts []Task) []assistant.Task {
	out := make([]assistant.Task, len(ts))
	for i, t := range ts {
		out[i] = toAssistantTask(t)
	}
	return out
}
