package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Result is the user-facing outcome of applying an action. Refresh is true
// only when the store was actually mutated, signalling callers to invalidate
// any cached task views.
type Result struct {
	Message string `json:"message"`
	Refresh bool   `json:"refresh"`
}

// snoozeOffsets maps the coarse duration tokens to due-date offsets.
// Unrecognized tokens fall back to one hour.
var snoozeOffsets = map[string]time.Duration{
	"10m": 10 * time.Minute,
	"1h":  time.Hour,
	"1d":  24 * time.Hour,
}

const listLimit = 12

// Dispatcher executes interpreted actions against a Store and formats a
// chat reply. It never returns an error to the caller: store failures are
// caught at the boundary and surfaced as a reply message, preserving the
// "always get some reply" contract of the chat pipeline.
type Dispatcher struct {
	now func() time.Time
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{now: func() time.Time { return time.Now().UTC() }}
}

// Apply performs the mutation the action calls for and returns the reply.
func (d *Dispatcher) Apply(ctx context.Context, action Action, store Store) Result {
	res, err := d.apply(ctx, action, store)
	if err != nil {
		slog.Error("executing assistant action", "intent", action.Intent, "error", err)
		return Result{Message: fmt.Sprintf("Error executing action: %v", err)}
	}
	return res
}

func (d *Dispatcher) apply(ctx context.Context, action Action, store Store) (Result, error) {
	switch action.Intent {
	case IntentAddTask:
		return d.addTask(ctx, action.Entities, store)
	case IntentCompleteTask:
		return d.completeTask(ctx, action.Entities, store)
	case IntentListTasks:
		return d.listTasks(ctx, action.Entities, store)
	case IntentSnoozeTask:
		return d.snoozeTask(ctx, action.Entities, store)
	case IntentRescheduleTask:
		return d.rescheduleTask(ctx, action.Entities, store)
	case IntentDeleteTask:
		return d.deleteTask(ctx, action.Entities, store)
	case IntentFreeUp:
		return d.freeUp(ctx, action.Entities, store)
	default:
		// UNKNOWN and anything unexpected: echo the classifier's canned reply.
		return Result{Message: action.Response}, nil
	}
}

func (d *Dispatcher) addTask(ctx context.Context, e Entities, store Store) (Result, error) {
	desc := e.Description
	if desc == "" {
		desc = "Untitled Task"
	}

	due := d.now().Add(time.Hour)
	if e.DueDate != nil {
		due = *e.DueDate
	}

	priority := e.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	if _, err := store.Insert(ctx, desc, due, priority, d.now()); err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Added task '%s' for %s", desc, due.Format("2006-01-02 15:04")),
		Refresh: true,
	}, nil
}

func (d *Dispatcher) completeTask(ctx context.Context, e Entities, store Store) (Result, error) {
	if e.Description == "" {
		return Result{Message: "Please specify which task to complete."}, nil
	}

	n, err := store.CompleteMatching(ctx, e.Description, d.now())
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Completed %d task(s) matching '%s'.", n, e.Description),
		Refresh: n > 0,
	}, nil
}

func (d *Dispatcher) listTasks(ctx context.Context, e Entities, store Store) (Result, error) {
	target := d.now()
	if e.TargetDate != nil {
		target = *e.TargetDate
	}

	tasks, err := store.TasksOn(ctx, target)
	if err != nil {
		return Result{}, err
	}
	if len(tasks) == 0 {
		return Result{Message: "No tasks for that date."}, nil
	}

	parts := make([]string, 0, listLimit)
	for i, t := range tasks {
		if i == listLimit {
			break
		}
		parts = append(parts, fmt.Sprintf("%s - %s", t.DueDate.Format("15:04"), t.Description))
	}
	extra := ""
	if len(tasks) > listLimit {
		extra = fmt.Sprintf(" (+%d more)", len(tasks)-listLimit)
	}
	return Result{Message: "Tasks: " + strings.Join(parts, "; ") + extra}, nil
}

func (d *Dispatcher) snoozeTask(ctx context.Context, e Entities, store Store) (Result, error) {
	if e.Description == "" {
		return Result{Message: "Which task should I snooze?"}, nil
	}

	dur := e.Duration
	if dur == "" {
		dur = "1h"
	}
	offset, ok := snoozeOffsets[dur]
	if !ok {
		offset = time.Hour
	}

	task, err := store.EarliestMatching(ctx, e.Description)
	if err != nil {
		return Result{}, err
	}
	if task == nil {
		return Result{Message: "Task not found to snooze."}, nil
	}

	// Offset from the task's current due date, not from now.
	newDue := task.DueDate.Add(offset)
	if err := store.SetSnooze(ctx, task.ID, newDue, newDue, dur); err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Snoozed task to %s", newDue.Format("15:04")),
		Refresh: true,
	}, nil
}

func (d *Dispatcher) rescheduleTask(ctx context.Context, e Entities, store Store) (Result, error) {
	if e.Description == "" || e.NewDate == nil {
		return Result{Message: "Need a task and a new date/time."}, nil
	}

	task, err := store.EarliestMatching(ctx, e.Description)
	if err != nil {
		return Result{}, err
	}
	if task == nil {
		return Result{Message: "Task not found."}, nil
	}

	if err := store.SetDueDate(ctx, task.ID, *e.NewDate); err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Rescheduled to %s", e.NewDate.Format("2006-01-02 15:04")),
		Refresh: true,
	}, nil
}

func (d *Dispatcher) deleteTask(ctx context.Context, e Entities, store Store) (Result, error) {
	if e.Description == "" {
		return Result{Message: "Which task should I delete?"}, nil
	}

	n, err := store.SoftDeleteMatching(ctx, e.Description, d.now())
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Deleted %d task(s).", n),
		Refresh: n > 0,
	}, nil
}

func (d *Dispatcher) freeUp(ctx context.Context, e Entities, store Store) (Result, error) {
	target := d.now()
	if e.TargetDate != nil {
		target = *e.TargetDate
	}

	tasks, err := store.ActiveTasksOn(ctx, target)
	if err != nil {
		return Result{}, err
	}
	if len(tasks) == 0 {
		return Result{Message: "No tasks to optimize that day."}, nil
	}

	// Best candidates to move: lowest priority first, and within equal
	// priority the latest-due task first. Each moves forward exactly one
	// day, keeping its time-of-day.
	candidates := make([]Task, len(tasks))
	copy(candidates, tasks)
	sort.SliceStable(candidates, func(i, j int) bool {
		wi, wj := priorityWeight(candidates[i].Priority), priorityWeight(candidates[j].Priority)
		if wi != wj {
			return wi < wj
		}
		return candidates[i].DueDate.After(candidates[j].DueDate)
	})

	type move struct {
		description string
		newDue      time.Time
	}
	var moved []move
	for _, t := range candidates {
		if len(moved) >= 3 {
			break
		}
		newDue := t.DueDate.AddDate(0, 0, 1)
		if err := store.SetDueDate(ctx, t.ID, newDue); err != nil {
			return Result{}, err
		}
		moved = append(moved, move{t.Description, newDue})
	}
	if len(moved) == 0 {
		return Result{Message: "Could not find tasks suitable to move."}, nil
	}

	parts := make([]string, len(moved))
	for i, m := range moved {
		parts[i] = fmt.Sprintf("'%s' to %s", m.description, m.newDue.Format("2006-01-02 15:04"))
	}
	return Result{
		Message: fmt.Sprintf("Freed time by moving %d task(s): %s", len(moved), strings.Join(parts, "; ")),
		Refresh: true,
	}, nil
}
