package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task is the slice of a stored task the dispatcher works with.
type Task struct {
	ID          uuid.UUID
	Description string
	DueDate     time.Time
	Priority    string
	Completed   bool
}

// Store is the task persistence surface the dispatcher mutates through.
// Every operation is assumed atomic on its own and to commit immediately;
// there are no cross-operation transactions. The select-then-update pairs in
// snooze and reschedule are therefore not isolated against a concurrent
// writer touching the same task; callers accept that window.
type Store interface {
	// Insert creates a task and returns its ID.
	Insert(ctx context.Context, description string, due time.Time, priority string, createdAt time.Time) (uuid.UUID, error)

	// CompleteMatching marks every incomplete, non-deleted task whose
	// description contains substr (case-insensitive) as completed at the
	// given instant, returning the number of rows affected.
	CompleteMatching(ctx context.Context, substr string, at time.Time) (int64, error)

	// TasksOn returns all non-deleted tasks due on the given calendar day,
	// ordered by due time ascending.
	TasksOn(ctx context.Context, day time.Time) ([]Task, error)

	// EarliestMatching returns the earliest-due incomplete, non-deleted task
	// whose description contains substr, or nil if none matches.
	EarliestMatching(ctx context.Context, substr string) (*Task, error)

	// SetDueDate replaces a task's due date.
	SetDueDate(ctx context.Context, id uuid.UUID, due time.Time) error

	// SetSnooze replaces a task's due date and records the snoozed-until
	// marker and the duration token used.
	SetSnooze(ctx context.Context, id uuid.UUID, due, snoozedUntil time.Time, duration string) error

	// SoftDeleteMatching sets deletedAt on every non-deleted task whose
	// description contains substr, returning the number of rows affected.
	SoftDeleteMatching(ctx context.Context, substr string, at time.Time) (int64, error)

	// ActiveTasksOn returns incomplete, non-deleted tasks due on the given
	// calendar day, ordered by due time ascending.
	ActiveTasksOn(ctx context.Context, day time.Time) ([]Task, error)
}
