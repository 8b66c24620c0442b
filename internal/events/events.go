package events

import (
	"time"

	"github.com/google/uuid"
)

// Task lifecycle event types. Each maps to the subject
// taskpilot.tasks.{type}.
const (
	TaskCreated     = "created"
	TaskCompleted   = "completed"
	TaskSnoozed     = "snoozed"
	TaskRescheduled = "rescheduled"
	TaskDeleted     = "deleted"
	TaskRestored    = "restored"
	TaskPurged      = "purged"
)

// TaskEvent is published after a task mutation commits.
type TaskEvent struct {
	Type        string     `json:"type"`
	TaskID      uuid.UUID  `json:"task_id"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Source      string     `json:"source"` // "api", "chat" or "xmpp"
	Timestamp   time.Time  `json:"timestamp"`
}
