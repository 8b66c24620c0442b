package assistant

import "time"

// Intent is the classified user goal, one of a fixed set.
type Intent string

const (
	IntentAddTask        Intent = "ADD_TASK"
	IntentCompleteTask   Intent = "COMPLETE_TASK"
	IntentListTasks      Intent = "LIST_TASKS"
	IntentSnoozeTask     Intent = "SNOOZE_TASK"
	IntentDeleteTask     Intent = "DELETE_TASK"
	IntentRescheduleTask Intent = "RESCHEDULE_TASK"
	IntentFreeUp         Intent = "FREE_UP"
	IntentUnknown        Intent = "UNKNOWN"
)

// Priority tags stored on tasks. The keyword scan in the classifier maps
// "high"/"medium"/"low" onto these.
const (
	PriorityHigh   = "priority-high"
	PriorityMedium = "priority-medium"
	PriorityLow    = "priority-low"
)

// Message is a single role-tagged conversation entry supplied per request.
// Conversation history is not persisted beyond the request.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Entities holds the structured fields extracted for an intent. All fields
// are optional; the dispatcher re-checks whatever it needs and fails soft.
type Entities struct {
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	NewDate     *time.Time `json:"new_date,omitempty"`
	Duration    string     `json:"duration,omitempty"` // e.g. "10m", "1h", "1d"
	Priority    string     `json:"priority,omitempty"`
}

// Action is the interpreted result of one conversation: a single intent,
// its extracted entities, and a canned confirmation for the user. It is
// created once by the classifier and consumed once by the dispatcher.
type Action struct {
	Intent   Intent   `json:"intent"`
	Entities Entities `json:"entities"`
	Response string   `json:"response"`
}

func priorityWeight(p string) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 2
	}
}
