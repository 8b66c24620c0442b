package chat

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taskpilot-app/taskpilot/internal/api"
	"github.com/taskpilot-app/taskpilot/internal/assistant"
	"github.com/taskpilot-app/taskpilot/internal/metrics"
)

// Handler runs the chat pipeline: classify the conversation, apply the
// resulting action against the task store, reply with the outcome.
type Handler struct {
	classifier *assistant.Classifier
	dispatcher *assistant.Dispatcher
	store      assistant.Store
	validate   *validator.Validate
	now        func() time.Time
}

func NewHandler(classifier *assistant.Classifier, dispatcher *assistant.Dispatcher, store assistant.Store) *Handler {
	return &Handler{
		classifier: classifier,
		dispatcher: dispatcher,
		store:      store,
		validate:   validator.New(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ChatRequest carries the conversation. Messages is deliberately not
// required: an empty conversation is a valid input that the classifier
// answers with a canned reply.
type ChatRequest struct {
	Messages []assistant.Message `json:"messages"`
}

type ChatResponse struct {
	Response string `json:"response"`
	Refresh  bool   `json:"refresh"`
	Intent   string `json:"intent"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	action := h.classifier.Classify(req.Messages)
	metrics.IntentsClassifiedTotal.WithLabelValues(string(action.Intent)).Inc()

	result := h.dispatcher.Apply(r.Context(), action, h.store)

	api.JSON(w, http.StatusOK, ChatResponse{
		Response: result.Message,
		Refresh:  result.Refresh,
		Intent:   string(action.Intent),
	})
}

type ParseDatetimeRequest struct {
	Text string `json:"text" validate:"required"`
}

type ParseDatetimeResponse struct {
	Resolved *time.Time `json:"resolved"`
	OK       bool       `json:"ok"`
}

// ParseDatetime exposes the time resolver so clients can preview how a
// phrase will be interpreted before submitting a task.
func (h *Handler) ParseDatetime(w http.ResponseWriter, r *http.Request) {
	var req ParseDatetimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	resp := ParseDatetimeResponse{}
	if resolved, ok := assistant.ResolveTime(req.Text, h.now()); ok {
		resp.Resolved = &resolved
		resp.OK = true
	}
	api.JSON(w, http.StatusOK, resp)
}
