package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/auth"
	"github.com/gellahi/EduConnect-Pakistan/internal/config"
	"github.com/gellahi/EduConnect-Pakistan/internal/db"
	"github.com/gellahi/EduConnect-Pakistan/internal/events"
	"github.com/gellahi/EduConnect-Pakistan/internal/health"
	"github.com/gellahi/EduConnect-Pakistan/internal/logger"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/middleware"
	"github.com/gellahi/EduConnect-Pakistan/internal/review"
	"github.com/gellahi/EduConnect-Pakistan/internal/schema"
	"github.com/gellahi/EduConnect-Pakistan/internal/session"
	"github.com/gellahi/EduConnect-Pakistan/internal/subject"
	"github.com/gellahi/EduConnect-Pakistan/internal/telemetry"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"
	"github.com/gellahi/EduConnect-Pakistan/internal/verification"
	"github.com/gellahi/EduConnect-Pakistan/internal/wishlist"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	db        *bun.DB
	publisher events.Publisher
	telemetry *telemetry.Telemetry
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.ForService(logger.Options{Env: cfg.Env, Level: cfg.LogLevel}, ServiceName, Version)
	slog.SetDefault(log)
	log.Info("initializing application", "env", cfg.Env, "commit", GitCommit, "built", BuildTime)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, cfg.Env, log)
	if err != nil {
		return nil, err
	}
	m := tel.Metrics

	database, err := db.New(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := m.Database.RegisterDB(database.DB, m.Meter()); err != nil {
		log.Warn("failed to register database pool metrics", "error", err)
	}
	if err := schema.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema up to date")

	publisher, checkers := newPublisher(cfg.Events, log)
	checkers = append(checkers, health.CheckFunc{Dependency: "postgres", Fn: database.PingContext})
	emitter := events.NewBestEffort(publisher, log, m)

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    log,
		db:        database,
		publisher: publisher,
		telemetry: tel,
	}
	app.routes(database, emitter, m, checkers)

	log.Info("application initialized successfully", "events", publisher.System())
	return app, nil
}

// newPublisher connects the configured broker. A broker that cannot be
// reached degrades to dropping events rather than failing startup.
func newPublisher(cfg config.EventsConfig, log *slog.Logger) (events.Publisher, []health.Checker) {
	switch cfg.Driver {
	case "nats":
		p, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Warn("failed to initialize NATS publisher, events disabled", "error", err)
			return events.Nop{}, nil
		}
		return p, []health.Checker{health.CheckFunc{Dependency: "nats", Fn: p.Ping}}
	case "kafka":
		p, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Warn("failed to initialize Kafka publisher, events disabled", "error", err)
			return events.Nop{}, nil
		}
		return p, nil
	default:
		log.Info("event publishing disabled", "driver", cfg.Driver)
		return events.Nop{}, nil
	}
}

func (a *App) routes(database *bun.DB, emitter events.Emitter, m *metrics.Metrics, checkers []health.Checker) {
	userRepo := user.NewRepository(database, m)
	subjectRepo := subject.NewRepository(database, m)
	tutorRepo := tutor.NewRepository(database, m)
	sessionRepo := session.NewRepository(database, m)

	subjectHandler := subject.NewHandler(subject.NewService(subjectRepo), a.logger)
	tutorHandler := tutor.NewHandler(tutor.NewService(tutorRepo, subjectRepo, m), a.logger)
	sessionHandler := session.NewHandler(session.NewService(sessionRepo, tutorRepo, subjectRepo, emitter, m), a.logger)
	reviewHandler := review.NewHandler(review.NewService(review.NewRepository(database, m), sessionRepo, emitter, m), a.logger)
	verificationHandler := verification.NewHandler(
		verification.NewService(verification.NewRepository(database, m), tutorRepo, emitter, m), a.logger)
	wishlistHandler := wishlist.NewHandler(
		wishlist.NewService(wishlist.NewRepository(database, m), userRepo, tutorRepo), a.logger)

	a.router.Use(chimw.RequestID)
	a.router.Use(chimw.Recoverer)
	a.router.Use(middleware.RequestLogger(a.logger))
	a.router.Use(middleware.CORS(a.config.Server.CORSOrigins))

	// Health endpoints (no auth required)
	health.NewHandler(m, a.logger, checkers...).RegisterRoutes(a.router)

	verifier := auth.NewVerifier(a.config.Auth.JWTSecret, a.config.Auth.Issuer)

	a.router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(verifier, a.logger))

		r.Route("/subjects", subjectHandler.RegisterRoutes)

		r.Route("/student", func(r chi.Router) {
			r.Use(auth.RequireRole(user.RoleStudent))
			tutorHandler.RegisterStudentRoutes(r)
			sessionHandler.RegisterStudentRoutes(r)
			reviewHandler.RegisterStudentRoutes(r)
			wishlistHandler.RegisterStudentRoutes(r)
		})

		r.Route("/tutor", func(r chi.Router) {
			r.Use(auth.RequireRole(user.RoleTutor))
			tutorHandler.RegisterTutorRoutes(r)
			sessionHandler.RegisterTutorRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(user.RoleAdmin))
			verificationHandler.RegisterAdminRoutes(r)
			subjectHandler.RegisterAdminRoutes(r)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run() error {
	srv := a.config.Server
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", srv.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(srv.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(srv.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(srv.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", srv.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("failed to close event publisher", "error", err)
	}
	errs = append(errs, a.telemetry.Shutdown(ctx))
	db.Close(a.db)

	return errors.Join(errs...)
}
