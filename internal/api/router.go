package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskpilot-app/taskpilot/internal/database"
	"github.com/taskpilot-app/taskpilot/internal/events"
	mw "github.com/taskpilot-app/taskpilot/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Auth handlers
	Register http.HandlerFunc
	Login    http.HandlerFunc
	Refresh  http.HandlerFunc
	Logout   http.HandlerFunc

	// Task handlers
	CreateTask         http.HandlerFunc
	ListTasks          http.HandlerFunc
	ListAllTasks       http.HandlerFunc
	ListMonthTasks     http.HandlerFunc
	ListDueTasks       http.HandlerFunc
	UpdateTask         http.HandlerFunc
	CompleteTask       http.HandlerFunc
	SnoozeTask         http.HandlerFunc
	DeleteTask         http.HandlerFunc
	ListCompletedTasks http.HandlerFunc
	DeleteCompleted    http.HandlerFunc
	ListDeletedTasks   http.HandlerFunc
	RestoreTask        http.HandlerFunc
	RestoreAllTasks    http.HandlerFunc
	PurgeTask          http.HandlerFunc
	PurgeAllTasks      http.HandlerFunc

	// Assistant handlers
	Chat          http.HandlerFunc
	ParseDatetime http.HandlerFunc

	// Auth middleware
	AuthMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	AuthRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, eventsClient *events.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks DB and NATS
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if eventsClient != nil && !eventsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if eventsClient == nil {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public) — optionally rate-limited
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Post("/logout", h.Logout)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/chat", h.Chat)
			r.Post("/parse-datetime", h.ParseDatetime)

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", h.CreateTask)
				r.Get("/", h.ListTasks)
				r.Get("/all", h.ListAllTasks)
				r.Get("/month", h.ListMonthTasks)
				r.Get("/due", h.ListDueTasks)

				r.Get("/completed", h.ListCompletedTasks)
				r.Delete("/completed", h.DeleteCompleted)

				r.Route("/deleted", func(r chi.Router) {
					r.Get("/", h.ListDeletedTasks)
					r.Delete("/", h.PurgeAllTasks)
					r.Post("/restore", h.RestoreAllTasks)
					r.Post("/{taskID}/restore", h.RestoreTask)
					r.Delete("/{taskID}", h.PurgeTask)
				})

				r.Route("/{taskID}", func(r chi.Router) {
					r.Put("/", h.UpdateTask)
					r.Delete("/", h.DeleteTask)
					r.Post("/complete", h.CompleteTask)
					r.Post("/snooze", h.SnoozeTask)
				})
			})
		})
	})

	return r
}
