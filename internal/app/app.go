package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leafnote/leafnote/internal/auth"
	"github.com/leafnote/leafnote/internal/config"
	"github.com/leafnote/leafnote/internal/event"
	handler "github.com/leafnote/leafnote/internal/handler/http"
	"github.com/leafnote/leafnote/internal/provider"
	"github.com/leafnote/leafnote/internal/repository/postgres"
	"github.com/leafnote/leafnote/internal/service"
	"github.com/leafnote/leafnote/migrations"
	"github.com/leafnote/leafnote/pkg/database"
	"github.com/leafnote/leafnote/pkg/health"
	pkgkafka "github.com/leafnote/leafnote/pkg/kafka"
)

// App wires together all dependencies and runs the leafnote service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Token codec and session issuer.
	codec, err := auth.NewTokenCodec(auth.CodecConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}
	issuer := auth.NewSessionIssuer(codec, cfg.IsProduction())

	// Build the dependency graph.
	userRepo := postgres.NewUserRepository(pool)
	noteRepo := postgres.NewNoteRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	userService := service.NewUserService(userRepo, eventProducer, logger)
	noteService := service.NewNoteService(noteRepo, userRepo, eventProducer, logger)
	federationService := service.NewFederationService(userRepo, eventProducer, logger)

	// Google federation is optional: without a client registration the
	// routes simply are not mounted.
	var oauthProvider provider.OAuthProvider
	if cfg.GoogleClientID != "" {
		google, err := provider.NewGoogleProvider(ctx, provider.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init google provider: %w", err)
		}
		oauthProvider = google
		logger.Info("google federation enabled")
	} else {
		logger.Warn("google federation disabled: GOOGLE_CLIENT_ID not set")
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		UserService:       userService,
		NoteService:       noteService,
		FederationService: federationService,
		OAuthProvider:     oauthProvider,
		Codec:             codec,
		Issuer:            issuer,
		UserRepo:          userRepo,
		HealthHandler:     healthHandler,
		Logger:            logger,
		CORS: handler.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		FrontendURL:   cfg.FrontendURL,
		SecureCookies: cfg.IsProduction(),
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: drain in-flight HTTP
// requests, flush the Kafka producer, then close the database pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}

	if err := a.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("kafka producer close: %w", err))
	}

	a.pool.Close()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	a.logger.Info("shutdown complete")
	return nil
}
