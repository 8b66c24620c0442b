package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot-app/taskpilot/internal/events"
	"github.com/taskpilot-app/taskpilot/internal/metrics"
)

// snoozeOffsets are the duration tokens the snooze endpoint accepts.
var snoozeOffsets = map[string]time.Duration{
	"10m": 10 * time.Minute,
	"1h":  time.Hour,
	"1d":  24 * time.Hour,
}

// Service applies task mutations, publishes lifecycle events and records
// mutation metrics. Events are best-effort; a mutation never fails because
// NATS is down.
type Service struct {
	repo      Repository
	publisher *events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, publisher *events.Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Repo exposes the repository as the assistant store surface.
func (s *Service) Repo() Repository {
	return s.repo
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

type CreateParams struct {
	Description      string
	DueDate          time.Time
	Priority         string
	RepeatFrequency  string
	CustomRepeatDays []int32
	RepeatUntil      *time.Time
}

func (s *Service) Create(ctx context.Context, p CreateParams) (*Task, error) {
	t := &Task{
		ID:               uuid.New(),
		Description:      p.Description,
		DueDate:          p.DueDate,
		Priority:         p.Priority,
		RepeatFrequency:  p.RepeatFrequency,
		CustomRepeatDays: p.CustomRepeatDays,
		RepeatUntil:      p.RepeatUntil,
		CreatedAt:        s.now(),
	}
	if t.Priority == "" {
		t.Priority = "priority-medium"
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	metrics.TaskMutationsTotal.WithLabelValues("create").Inc()
	s.publisher.TaskEvent(ctx, events.TaskCreated, "api", t.ID, t.Description, &t.DueDate)
	return t, nil
}

type UpdateParams struct {
	Description      *string
	DueDate          *time.Time
	Priority         *string
	RepeatFrequency  *string
	CustomRepeatDays []int32
	RepeatUntil      *time.Time
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.DeletedAt != nil {
		return nil, ErrNotFound
	}

	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.RepeatFrequency != nil {
		t.RepeatFrequency = *p.RepeatFrequency
	}
	if p.CustomRepeatDays != nil {
		t.CustomRepeatDays = p.CustomRepeatDays
	}
	if p.RepeatUntil != nil {
		t.RepeatUntil = p.RepeatUntil
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	metrics.TaskMutationsTotal.WithLabelValues("update").Inc()
	s.publisher.TaskEvent(ctx, events.TaskRescheduled, "api", t.ID, t.Description, &t.DueDate)
	return t, nil
}

func (s *Service) ListForDate(ctx context.Context, day time.Time, sortBy string) ([]Task, error) {
	return s.repo.ListForDate(ctx, day, sortBy)
}

func (s *Service) ListActive(ctx context.Context) ([]Task, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) ListForMonth(ctx context.Context, year int, month time.Month) ([]Task, error) {
	return s.repo.ListForMonth(ctx, year, month)
}

func (s *Service) ListDueNow(ctx context.Context) ([]Task, error) {
	return s.repo.ListDueNow(ctx, s.now())
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Complete(ctx, id, s.now()); err != nil {
		return err
	}
	metrics.TaskMutationsTotal.WithLabelValues("complete").Inc()
	s.publisher.TaskEvent(ctx, events.TaskCompleted, "api", id, "", nil)
	return nil
}

// Snooze pushes a task's due date duration away from now. Unlike the chat
// pipeline, which offsets from the task's current due date, the REST surface
// snoozes relative to the present instant.
func (s *Service) Snooze(ctx context.Context, id uuid.UUID, duration string) (*Task, error) {
	offset, ok := snoozeOffsets[duration]
	if !ok {
		return nil, fmt.Errorf("invalid snooze duration %q", duration)
	}

	newDue := s.now().Add(offset)
	if err := s.repo.SetSnooze(ctx, id, newDue, newDue, duration); err != nil {
		return nil, err
	}

	metrics.TaskMutationsTotal.WithLabelValues("snooze").Inc()
	s.publisher.TaskEvent(ctx, events.TaskSnoozed, "api", id, "", &newDue)
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteByID(ctx, id, s.now()); err != nil {
		return err
	}
	metrics.TaskMutationsTotal.WithLabelValues("delete").Inc()
	s.publisher.TaskEvent(ctx, events.TaskDeleted, "api", id, "", nil)
	return nil
}

func (s *Service) ListCompleted(ctx context.Context) ([]Task, error) {
	return s.repo.ListCompleted(ctx)
}

func (s *Service) DeleteCompleted(ctx context.Context) (int64, error) {
	n, err := s.repo.SoftDeleteCompleted(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.TaskMutationsTotal.WithLabelValues("delete").Add(float64(n))
	}
	return n, nil
}

func (s *Service) ListDeleted(ctx context.Context) ([]Task, error) {
	return s.repo.ListDeleted(ctx)
}

func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Task, error) {
	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, err
	}
	metrics.TaskMutationsTotal.WithLabelValues("restore").Inc()
	s.publisher.TaskEvent(ctx, events.TaskRestored, "api", id, "", nil)
	return s.repo.GetByID(ctx, id)
}

func (s *Service) RestoreAll(ctx context.Context) (int64, error) {
	n, err := s.repo.RestoreAll(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.TaskMutationsTotal.WithLabelValues("restore").Add(float64(n))
	}
	return n, nil
}

func (s *Service) Purge(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Purge(ctx, id); err != nil {
		return err
	}
	metrics.TaskMutationsTotal.WithLabelValues("purge").Inc()
	s.publisher.TaskEvent(ctx, events.TaskPurged, "api", id, "", nil)
	return nil
}

func (s *Service) PurgeAll(ctx context.Context) (int64, error) {
	n, err := s.repo.PurgeAll(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.TaskMutationsTotal.WithLabelValues("purge").Add(float64(n))
	}
	return n, nil
}
