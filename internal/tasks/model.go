package tasks

import (
	"time"

	"github.com/google/uuid"
)

// Task is a full task row. Repeat columns are stored for forward
// compatibility; instance generation is not implemented.
type Task struct {
	ID              uuid.UUID `json:"id"`
	Description     string    `json:"description"`
	DueDate         time.Time `json:"due_date"`
	Priority        string    `json:"priority"`
	RepeatFrequency string    `json:"repeat_frequency,omitempty"`
	// CustomRepeatDays holds weekday numbers (0=Sunday..6=Saturday) for the
	// "custom" repeat frequency.
	CustomRepeatDays []int32    `json:"custom_repeat_days,omitempty"`
	RepeatUntil      *time.Time `json:"repeat_until,omitempty"`
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	SnoozedUntil     *time.Time `json:"snoozed_until,omitempty"`
	SnoozeDuration   string     `json:"snooze_duration,omitempty"`
}
