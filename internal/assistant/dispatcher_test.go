package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dispatchNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type fakeTask struct {
	Task
	CreatedAt    time.Time
	CompletedAt  *time.Time
	DeletedAt    *time.Time
	SnoozedUntil *time.Time
	Snooze       string
}

// memStore is an in-memory Store for dispatcher tests.
type memStore struct {
	tasks []*fakeTask
	err   error // returned by every call when set
}

func (s *memStore) add(description string, due time.Time, priority string) *fakeTask {
	t := &fakeTask{Task: Task{
		ID:          uuid.New(),
		Description: description,
		DueDate:     due,
		Priority:    priority,
	}}
	s.tasks = append(s.tasks, t)
	return t
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (s *memStore) Insert(_ context.Context, description string, due time.Time, priority string, createdAt time.Time) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	t := s.add(description, due, priority)
	t.CreatedAt = createdAt
	return t.ID, nil
}

func (s *memStore) CompleteMatching(_ context.Context, substr string, at time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for _, t := range s.tasks {
		if !t.Completed && t.DeletedAt == nil && containsFold(t.Description, substr) {
			t.Completed = true
			t.CompletedAt = &at
			n++
		}
	}
	return n, nil
}

func (s *memStore) TasksOn(_ context.Context, day time.Time) ([]Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Task
	for _, t := range s.tasks {
		if t.DeletedAt == nil && sameDay(t.DueDate, day) {
			out = append(out, t.Task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *memStore) EarliestMatching(_ context.Context, substr string) (*Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	var best *fakeTask
	for _, t := range s.tasks {
		if t.Completed || t.DeletedAt != nil || !containsFold(t.Description, substr) {
			continue
		}
		if best == nil || t.DueDate.Before(best.DueDate) {
			best = t
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := best.Task
	return &cp, nil
}

func (s *memStore) SetDueDate(_ context.Context, id uuid.UUID, due time.Time) error {
	if s.err != nil {
		return s.err
	}
	for _, t := range s.tasks {
		if t.ID == id {
			t.DueDate = due
			return nil
		}
	}
	return fmt.Errorf("task %s not found", id)
}

func (s *memStore) SetSnooze(_ context.Context, id uuid.UUID, due, snoozedUntil time.Time, duration string) error {
	if s.err != nil {
		return s.err
	}
	for _, t := range s.tasks {
		if t.ID == id {
			t.DueDate = due
			t.SnoozedUntil = &snoozedUntil
			t.Snooze = duration
			return nil
		}
	}
	return fmt.Errorf("task %s not found", id)
}

func (s *memStore) SoftDeleteMatching(_ context.Context, substr string, at time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for _, t := range s.tasks {
		if t.DeletedAt == nil && containsFold(t.Description, substr) {
			t.DeletedAt = &at
			n++
		}
	}
	return n, nil
}

func (s *memStore) ActiveTasksOn(_ context.Context, day time.Time) ([]Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Task
	for _, t := range s.tasks {
		if !t.Completed && t.DeletedAt == nil && sameDay(t.DueDate, day) {
			out = append(out, t.Task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func newTestDispatcher() *Dispatcher {
	d := NewDispatcher()
	d.now = func() time.Time { return dispatchNow }
	return d
}

func TestApply_AddTask(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}

	due := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	res := d.Apply(context.Background(), Action{
		Intent:   IntentAddTask,
		Entities: Entities{Description: "walk the dog", DueDate: &due, Priority: PriorityHigh},
	}, store)

	assert.True(t, res.Refresh)
	assert.Equal(t, "Added task 'walk the dog' for 2025-06-11 09:00", res.Message)
	require.Len(t, store.tasks, 1)
	assert.Equal(t, PriorityHigh, store.tasks[0].Priority)
	assert.Equal(t, dispatchNow, store.tasks[0].CreatedAt)
	assert.False(t, store.tasks[0].Completed)
	assert.Nil(t, store.tasks[0].DeletedAt)
}

func TestApply_AddTask_Defaults(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}

	res := d.Apply(context.Background(), Action{Intent: IntentAddTask}, store)

	assert.True(t, res.Refresh)
	require.Len(t, store.tasks, 1)
	assert.Equal(t, "Untitled Task", store.tasks[0].Description)
	assert.Equal(t, PriorityMedium, store.tasks[0].Priority)
	assert.Equal(t, dispatchNow.Add(time.Hour), store.tasks[0].DueDate)
}

func TestApply_CompleteTask_BulkMatch(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	store.add("buy dog food", dispatchNow, PriorityMedium)
	store.add("walk the dog", dispatchNow, PriorityLow)
	store.add("water plants", dispatchNow, PriorityLow)

	res := d.Apply(context.Background(), Action{
		Intent:   IntentCompleteTask,
		Entities: Entities{Description: "dog"},
	}, store)

	assert.True(t, res.Refresh)
	assert.Equal(t, "Completed 2 task(s) matching 'dog'.", res.Message)
	assert.True(t, store.tasks[0].Completed)
	assert.True(t, store.tasks[1].Completed)
	assert.False(t, store.tasks[2].Completed)
}

func TestApply_CompleteTask_MissingDescription(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	store.add("walk the dog", dispatchNow, PriorityLow)

	res := d.Apply(context.Background(), Action{Intent: IntentCompleteTask}, store)

	assert.False(t, res.Refresh)
	assert.Equal(t, "Please specify which task to complete.", res.Message)
	assert.False(t, store.tasks[0].Completed)
}

func TestApply_ListTasks(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	store.add("standup", time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC), PriorityMedium)
	store.add("lunch with Sam", time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC), PriorityLow)
	store.add("next week thing", time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC), PriorityLow)

	target := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	res := d.Apply(context.Background(), Action{
		Intent:   IntentListTasks,
		Entities: Entities{TargetDate: &target},
	}, store)

	assert.False(t, res.Refresh)
	assert.Equal(t, "Tasks: 09:30 - standup; 12:00 - lunch with Sam", res.Message)
}

func TestApply_ListTasks_TruncatesAtTwelve(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	day := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		store.add(fmt.Sprintf("task %02d", i), day.Add(time.Duration(i)*time.Minute), PriorityLow)
	}

	res := d.Apply(context.Background(), Action{
		Intent:   IntentListTasks,
		Entities: Entities{TargetDate: &day},
	}, store)

	assert.Contains(t, res.Message, "task 11")
	assert.NotContains(t, res.Message, "task 12")
	assert.True(t, strings.HasSuffix(res.Message, " (+3 more)"), "message: %s", res.Message)
}

func TestApply_ListTasks_Empty(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}

	res := d.Apply(context.Background(), Action{Intent: IntentListTasks}, store)

	assert.False(t, res.Refresh)
	assert.Equal(t, "No tasks for that date.", res.Message)
}

func TestApply_SnoozeTask_OffsetsFromCurrentDue(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	task := store.add("yearly review", time.Date(2099, 1, 1, 9, 0, 0, 0, time.UTC), PriorityHigh)

	res := d.Apply(context.Background(), Action{
		Intent:   IntentSnoozeTask,
		Entities: Entities{Description: "yearly review", Duration: "10m"},
	}, store)

	assert.True(t, res.Refresh)
	assert.Equal(t, "Snoozed task to 09:10", res.Message)
	assert.Equal(t, time.Date(2099, 1, 1, 9, 10, 0, 0, time.UTC), task.DueDate)
	require.NotNil(t, task.SnoozedUntil)
	assert.Equal(t, task.DueDate, *task.SnoozedUntil)
	assert.Equal(t, "10m", task.Snooze)
}

func TestApply_SnoozeTask_PicksEarliestMatch(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	later := store.add("call mom", dispatchNow.Add(4*time.Hour), PriorityLow)
	earlier := store.add("call dentist", dispatchNow.Add(time.Hour), PriorityLow)

	res := d.Apply(context.Background(), Action{
		Intent:   IntentSnoozeTask,
		Entities: Entities{Description: "call", Duration: "1h"},
	}, store)

	assert.True(t, res.Refresh)
	assert.Equal(t, dispatchNow.Add(2*time.Hour), earlier.DueDate)
	assert.Equal(t, dispatchNow.Add(4*time.Hour), later.DueDate)
}

func TestApply_SnoozeTask_UnknownDurationDefaultsToHour(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	task := store.add("call mom", dispatchNow.Add(time.Hour), PriorityLow)

	res := d.Apply(context.Background(), Action{
		Intent:   IntentSnoozeTask,
		Entities: Entities{Description: "call mom", Duration: "15m"},
	}, store)

	assert.True(t, res.Refresh)
	assert.Equal(t, dispatchNow.Add(2*time.Hour), task.DueDate)
}

func TestApply_SnoozeTask_MissingDescription(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}

	res := d.Apply(context.Background(), Action{Intent: IntentSnoozeTask}, store)

	assert.False(t, res.Refresh)
	assert.Equal(t, "Which task should I snooze?", res.Message)
}

func TestApply_SnoozeTask_NotFound(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}

	res := d.Apply(context.Background(), Action{
		Intent:   IntentSnoozeTask,
		Entities: Entities{Description: "nonexistent", Duration: "1h"},
	}, store)

	assert.False(t, res.Refresh)
	assert.Equal(t, "Task not found to snooze.", res.Message)
}

func TestApply_RescheduleTask(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	task := store.add("team sync", dispatchNow.Add(time.Hour), PriorityMedium)

	newDate := time.Date(2025, 6, 13, 15, 0, 0, 0, time.UTC)
	res := d.Apply(context.Background(), Action{
		Intent:   IntentRescheduleTask,
		Entities: Entities{Description: "team sync", NewDate: &newDate},
	}, store)

	assert.True(t, res.Refresh)
	assert.Equal(t, "Rescheduled to 2025-06-13 15:00", res.Message)
	assert.Equal(t, newDate, task.DueDate)
}

func TestApply_RescheduleTask_MissingFields(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}

	res := d.Apply(context.Background(), Action{
		Intent:   IntentRescheduleTask,
		Entities: Entities{Description: "team sync"}, // no new date
	}, store)

	assert.False(t, res.Refresh)
	assert.Equal(t, "Need a task and a new date/time.", res.Message)
}

func TestApply_DeleteTask_Idempotent(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	store.add("old reminder A", dispatchNow, PriorityLow)
	store.add("old reminder B", dispatchNow, PriorityLow)

	action := Action{Intent: IntentDeleteTask, Entities: Entities{Description: "old reminder"}}

	res := d.Apply(context.Background(), action, store)
	assert.True(t, res.Refresh)
	assert.Equal(t, "Deleted 2 task(s).", res.Message)

	// Second pass over the already-deleted set mutates nothing.
	res = d.Apply(context.Background(), action, store)
	assert.False(t, res.Refresh)
	assert.Equal(t, "Deleted 0 task(s).", res.Message)
}

func TestApply_FreeUp_MovesThreeLowestPriorityLatest(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}
	day := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	high := store.add("board meeting", day.Add(9*time.Hour), PriorityHigh)
	med := store.add("code review", day.Add(11*time.Hour), PriorityMedium)
	lowEarly := store.add("water plants", day.Add(8*time.Hour), PriorityLow)
	lowMid := store.add("tidy desk", day.Add(13*time.Hour), PriorityLow)
	lowLate := store.add("archive emails", day.Add(16*time.Hour), PriorityLow)

	target := day.Add(9 * time.Hour)
	res := d.Apply(context.Background(), Action{
		Intent:   IntentFreeUp,
		Entities: Entities{TargetDate: &target},
	}, store)

	assert.True(t, res.Refresh)
	assert.Contains(t, res.Message, "Freed time by moving 3 task(s)")

	// The three low-priority tasks move one day forward, same time-of-day.
	assert.Equal(t, day.AddDate(0, 0, 1).Add(16*time.Hour), lowLate.DueDate)
	assert.Equal(t, day.AddDate(0, 0, 1).Add(13*time.Hour), lowMid.DueDate)
	assert.Equal(t, day.AddDate(0, 0, 1).Add(8*time.Hour), lowEarly.DueDate)

	// Higher priorities stay put.
	assert.Equal(t, day.Add(9*time.Hour), high.DueDate)
	assert.Equal(t, day.Add(11*time.Hour), med.DueDate)

	// Latest low-priority task is listed first in the summary.
	assert.Less(t,
		strings.Index(res.Message, "archive emails"),
		strings.Index(res.Message, "tidy desk"),
	)
}

func TestApply_FreeUp_NothingToOptimize(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}

	res := d.Apply(context.Background(), Action{Intent: IntentFreeUp}, store)

	assert.False(t, res.Refresh)
	assert.Equal(t, "No tasks to optimize that day.", res.Message)
}

func TestApply_Unknown_EchoesCannedResponse(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{}

	res := d.Apply(context.Background(), Action{
		Intent:   IntentUnknown,
		Response: respHelp,
	}, store)

	assert.False(t, res.Refresh)
	assert.Equal(t, respHelp, res.Message)
}

func TestApply_StoreFailureIsCaught(t *testing.T) {
	d := newTestDispatcher()
	store := &memStore{err: errors.New("connection reset")}

	res := d.Apply(context.Background(), Action{
		Intent:   IntentAddTask,
		Entities: Entities{Description: "doomed"},
	}, store)

	assert.False(t, res.Refresh)
	assert.Contains(t, res.Message, "Error executing action")
}

func TestApply_AddThenList_RoundTrip(t *testing.T) {
	c := newTestClassifier()
	d := newTestDispatcher()
	store := &memStore{}

	addRes := d.Apply(context.Background(), c.Classify(user("add walk the dog tomorrow")), store)
	require.True(t, addRes.Refresh)

	listRes := d.Apply(context.Background(), c.Classify(user("list tasks for tomorrow")), store)
	assert.Contains(t, listRes.Message, "walk the dog")
	assert.Contains(t, listRes.Message, "09:00")
}
