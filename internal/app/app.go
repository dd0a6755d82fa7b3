package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"collabhub/internal/auth"
	"collabhub/internal/chat"
	"collabhub/internal/config"
	"collabhub/internal/db"
	"collabhub/internal/events"
	"collabhub/internal/health"
	"collabhub/internal/kafka"
	"collabhub/internal/logger"
	"collabhub/internal/messaging"
	"collabhub/internal/metrics"
	"collabhub/internal/middleware"
	"collabhub/internal/project"
	"collabhub/internal/skill"
	"collabhub/internal/student"
	"collabhub/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	publisher events.Publisher
}

func New() *App {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses JSON format
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	ctx := context.Background()

	// Telemetry is best-effort: without a collector the app still serves
	// traffic, just with no-op metrics.
	tel, err := telemetry.Init(ctx, ServiceName, Version, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize telemetry, using no-op metrics", "error", err)
		tel = &telemetry.Telemetry{Metrics: metrics.NewMock()}
	}
	app.telemetry = tel
	m := tel.Metrics

	database := db.New(cfg.Database)

	if err := db.RunMigrations(ctx, database,
		(*student.Student)(nil),
		(*auth.RefreshToken)(nil),
		(*skill.Skill)(nil),
		(*skill.StudentSkill)(nil),
		(*project.Project)(nil),
		(*project.RequiredSkill)(nil),
		(*project.TeamMember)(nil),
		(*project.Application)(nil),
		(*chat.Message)(nil),
	); err != nil {
		log.Fatal("failed to run migrations:", err)
	}

	if err := m.Database.RegisterDB(database.DB, otel.Meter(ServiceName)); err != nil {
		slogLogger.Warn("failed to register db pool metrics", "error", err)
	}

	app.publisher = newPublisher(cfg.Messaging, slogLogger)

	// Apply CORS middleware globally
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no auth required)
	healthHandler := health.NewHandler()
	healthHandler.RegisterRoutes(app.router)

	// Auth setup
	studentRepo := student.NewRepository(database, m)
	authRepo := auth.NewRepository(database, m)
	authService := auth.NewService(authRepo, studentRepo)
	authHandler := auth.NewHandler(authService, slogLogger, m)
	authHandler.RegisterRoutes(app.router)

	studentService := student.NewService(studentRepo)
	studentHandler := student.NewHandler(studentService, slogLogger)

	skillRepo := skill.NewRepository(database, m)
	skillHandler := skill.NewHandler(skillRepo, slogLogger)
	skillHandler.RegisterRoutes(app.router)

	projectRepo := project.NewRepository(database, m)
	projectService := project.NewService(projectRepo, app.publisher, slogLogger)
	projectHandler := project.NewHandler(projectService, slogLogger, m)

	chatRepo := chat.NewRepository(database, m)
	chatService := chat.NewService(chatRepo, projectRepo, app.publisher, slogLogger)
	chatHandler := chat.NewHandler(chatService, slogLogger, m)

	// Project browsing works for guests too; Identify resolves the principal
	// when a token is present so the listing can self-filter.
	app.router.Group(func(r chi.Router) {
		r.Use(auth.Identify(slogLogger))
		projectHandler.RegisterPublicRoutes(r)
	})

	// Everything below requires an authenticated student.
	app.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(slogLogger))
		authHandler.RegisterProtectedRoutes(r)
		skillHandler.RegisterProtectedRoutes(r)
		projectHandler.RegisterProtectedRoutes(r)
		chatHandler.RegisterRoutes(r)
	})

	// Admin-only surface.
	app.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(slogLogger))
		r.Use(auth.RequireAdmin(slogLogger))
		studentHandler.RegisterRoutes(r)
		projectHandler.RegisterAdminRoutes(r)
	})

	slogLogger.Info("application initialized successfully")

	return app
}

// newPublisher selects the event broker from config. A broker that fails to
// connect degrades to nil; domain events are then skipped.
func newPublisher(cfg config.MessagingConfig, logger *slog.Logger) events.Publisher {
	switch cfg.Broker {
	case "nats":
		producer, err := messaging.NewProducer(cfg.NATSURL, cfg.Subject, logger)
		if err != nil {
			logger.Warn("failed to initialize NATS producer", "error", err)
			return nil
		}
		logger.Info("NATS producer initialized successfully")
		return producer
	case "kafka":
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Warn("failed to initialize Kafka producer", "error", err)
			return nil
		}
		logger.Info("Kafka producer initialized successfully")
		return producer
	default:
		logger.Info("event publishing disabled", "broker", cfg.Broker)
		return nil
	}
}

func (a *App) Run() error {
	readTimeout := a.config.Server.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 15
	}
	writeTimeout := a.config.Server.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 15
	}
	idleTimeout := a.config.Server.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
		IdleTimeout:  time.Duration(idleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("publisher close error", "error", err)
		}
	}

	if a.telemetry != nil && a.telemetry.MeterProvider != nil {
		if err := telemetry.Shutdown(ctx, a.telemetry.MeterProvider, a.logger); err != nil {
			a.logger.Error("telemetry shutdown error", "error", err)
		}
	}

	return a.server.Shutdown(ctx)
}
