package tasks

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskpilot-app/taskpilot/internal/api"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

type CreateTaskRequest struct {
	Description      string     `json:"description" validate:"required,max=150"`
	DueDate          time.Time  `json:"due_date" validate:"required"`
	Priority         string     `json:"priority" validate:"omitempty,oneof=priority-high priority-medium priority-low"`
	RepeatFrequency  string     `json:"repeat_frequency" validate:"omitempty,oneof=daily weekly monthly custom"`
	CustomRepeatDays []int32    `json:"custom_repeat_days" validate:"omitempty,dive,min=0,max=6"`
	RepeatUntil      *time.Time `json:"repeat_until"`
}

type UpdateTaskRequest struct {
	Description      *string    `json:"description" validate:"omitempty,max=150"`
	DueDate          *time.Time `json:"due_date"`
	Priority         *string    `json:"priority" validate:"omitempty,oneof=priority-high priority-medium priority-low"`
	RepeatFrequency  *string    `json:"repeat_frequency" validate:"omitempty,oneof=daily weekly monthly custom"`
	CustomRepeatDays []int32    `json:"custom_repeat_days" validate:"omitempty,dive,min=0,max=6"`
	RepeatUntil      *time.Time `json:"repeat_until"`
}

type SnoozeTaskRequest struct {
	Duration string `json:"duration" validate:"required,oneof=10m 1h 1d"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	task, err := h.svc.Create(r.Context(), CreateParams{
		Description:      req.Description,
		DueDate:          req.DueDate,
		Priority:         req.Priority,
		RepeatFrequency:  req.RepeatFrequency,
		CustomRepeatDays: req.CustomRepeatDays,
		RepeatUntil:      req.RepeatUntil,
	})
	if err != nil {
		slog.Error("creating task", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, task)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			api.HandleError(w, api.NewBadRequestError("date must be YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	sortBy := r.URL.Query().Get("sort")
	if sortBy != "" && sortBy != "time" && sortBy != "priority" {
		api.HandleError(w, api.NewBadRequestError("sort must be time or priority"))
		return
	}

	tasks, err := h.svc.ListForDate(r.Context(), day, sortBy)
	if err != nil {
		slog.Error("listing tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListActive(r.Context())
	if err != nil {
		slog.Error("listing all tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("year is required"))
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		api.HandleError(w, api.NewBadRequestError("month must be 1-12"))
		return
	}

	tasks, err := h.svc.ListForMonth(r.Context(), year, time.Month(month))
	if err != nil {
		slog.Error("listing month tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListDue(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListDueNow(r.Context())
	if err != nil {
		slog.Error("listing due tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	task, err := h.svc.Update(r.Context(), id, UpdateParams{
		Description:      req.Description,
		DueDate:          req.DueDate,
		Priority:         req.Priority,
		RepeatFrequency:  req.RepeatFrequency,
		CustomRepeatDays: req.CustomRepeatDays,
		RepeatUntil:      req.RepeatUntil,
	})
	if err != nil {
		h.mutationError(w, "updating task", err)
		return
	}
	api.JSON(w, http.StatusOK, task)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	err := h.svc.Complete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		// Completing an already-completed task is not an error.
		if task, getErr := h.svc.Get(r.Context(), id); getErr == nil && task.Completed && task.DeletedAt == nil {
			api.JSONMessage(w, http.StatusOK, "task already completed")
			return
		}
		api.HandleError(w, api.NewNotFoundError("task not found"))
		return
	}
	if err != nil {
		slog.Error("completing task", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSONMessage(w, http.StatusOK, "task completed")
}

func (h *Handler) Snooze(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req SnoozeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	task, err := h.svc.Snooze(r.Context(), id, req.Duration)
	if err != nil {
		h.mutationError(w, "snoozing task", err)
		return
	}
	api.JSON(w, http.StatusOK, task)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.mutationError(w, "deleting task", err)
		return
	}
	api.JSONMessage(w, http.StatusOK, "task deleted")
}

func (h *Handler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListCompleted(r.Context())
	if err != nil {
		slog.Error("listing completed tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) DeleteCompleted(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DeleteCompleted(r.Context())
	if err != nil {
		slog.Error("deleting completed tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListDeleted(r.Context())
	if err != nil {
		slog.Error("listing deleted tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.svc.Restore(r.Context(), id)
	if err != nil {
		h.mutationError(w, "restoring task", err)
		return
	}
	api.JSON(w, http.StatusOK, task)
}

func (h *Handler) RestoreAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.RestoreAll(r.Context())
	if err != nil {
		slog.Error("restoring all tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, map[string]int64{"restored": n})
}

func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Purge(r.Context(), id); err != nil {
		h.mutationError(w, "purging task", err)
		return
	}
	api.JSONMessage(w, http.StatusOK, "task permanently deleted")
}

func (h *Handler) PurgeAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.PurgeAll(r.Context())
	if err != nil {
		slog.Error("purging all tasks", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, map[string]int64{"purged": n})
}

func (h *Handler) mutationError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		api.HandleError(w, api.NewNotFoundError("task not found"))
		return
	}
	slog.Error(op, "error", err)
	api.HandleError(w, api.ErrInternalServer)
}

func taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid task id"))
		return uuid.Nil, false
	}
	return id, true
}
