package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/taskpilot-app/taskpilot/internal/api"
	"github.com/taskpilot-app/taskpilot/internal/assistant"
	"github.com/taskpilot-app/taskpilot/internal/auth"
	"github.com/taskpilot-app/taskpilot/internal/chat"
	"github.com/taskpilot-app/taskpilot/internal/config"
	"github.com/taskpilot-app/taskpilot/internal/database"
	"github.com/taskpilot-app/taskpilot/internal/events"
	"github.com/taskpilot-app/taskpilot/internal/middleware"
	iredis "github.com/taskpilot-app/taskpilot/internal/redis"
	"github.com/taskpilot-app/taskpilot/internal/server"
	"github.com/taskpilot-app/taskpilot/internal/tasks"
	"github.com/taskpilot-app/taskpilot/internal/users"
	"github.com/taskpilot-app/taskpilot/internal/xmpp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	ctx := context.Background()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS (optional)
	var eventsClient *events.Client
	if cfg.NATS.Enabled {
		eventsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to NATS", "error", err)
			os.Exit(1)
		}
		defer eventsClient.Close()
	} else {
		slog.Info("NATS disabled, task events will not be published")
	}
	publisher := events.NewPublisher(eventsClient)

	// Users and auth
	userRepo := users.NewRepository(pool)
	userSvc := users.NewService(userRepo)

	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authSvc := auth.NewService(jwtManager, redisClient, userSvc.EmailByID)
	authHandler := auth.NewHandler(authSvc, userSvc)

	// Tasks
	taskRepo := tasks.NewRepository(pool)
	taskSvc := tasks.NewService(taskRepo, publisher)
	taskHandler := tasks.NewHandler(taskSvc)

	// Assistant pipeline
	classifier := assistant.NewClassifier()
	dispatcher := assistant.NewDispatcher()
	chatHandler := chat.NewHandler(classifier, dispatcher, taskRepo)

	// XMPP channel (optional)
	if cfg.XMPP.Enabled {
		xmppHandler := xmpp.NewHandler(classifier, dispatcher, taskRepo)
		component, err := xmpp.NewComponent(cfg.XMPP, xmppHandler)
		if err != nil {
			slog.Error("creating XMPP component", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := component.Start(ctx); err != nil {
				slog.Error("XMPP component stopped", "error", err)
			}
		}()
		defer component.Stop()
	}

	// Router
	rateLimiter := middleware.NewRateLimiter(redisClient, 10, 60)
	router := api.NewRouter(pool, eventsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AuthRateLimiter:    rateLimiter.Middleware,
	}, api.HandlerSet{
		Register: authHandler.Register,
		Login:    authHandler.Login,
		Refresh:  authHandler.Refresh,
		Logout:   authHandler.Logout,

		CreateTask:         taskHandler.Create,
		ListTasks:          taskHandler.List,
		ListAllTasks:       taskHandler.ListAll,
		ListMonthTasks:     taskHandler.ListMonth,
		ListDueTasks:       taskHandler.ListDue,
		UpdateTask:         taskHandler.Update,
		CompleteTask:       taskHandler.Complete,
		SnoozeTask:         taskHandler.Snooze,
		DeleteTask:         taskHandler.Delete,
		ListCompletedTasks: taskHandler.ListCompleted,
		DeleteCompleted:    taskHandler.DeleteCompleted,
		ListDeletedTasks:   taskHandler.ListDeleted,
		RestoreTask:        taskHandler.Restore,
		RestoreAllTasks:    taskHandler.RestoreAll,
		PurgeTask:          taskHandler.Purge,
		PurgeAllTasks:      taskHandler.PurgeAll,

		Chat:          chatHandler.Chat,
		ParseDatetime: chatHandler.ParseDatetime,

		AuthMiddleware: auth.Middleware(authSvc),
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
