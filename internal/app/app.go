package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/config"
	"github.com/Aidensmirk/online-learning-platform/internal/database"
	"github.com/Aidensmirk/online-learning-platform/internal/delivery/httpd"
	"github.com/Aidensmirk/online-learning-platform/internal/middleware"
	"github.com/Aidensmirk/online-learning-platform/internal/repository"
	"github.com/Aidensmirk/online-learning-platform/internal/server"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/worker"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// expiredSessions - хранилища, которые сами не удаляют протухшие записи.
type expiredSessions interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type App struct {
	server     *server.Server
	logger     zerolog.Logger
	config     *config.Config
	pool       *worker.Pool
	publisher  integration.ActivityPublisher
	workspaces *workspace.Store
	sessions   session.Store
	db         *repository.PostgresRepository
	redis      *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
	background *errgroup.Group
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		logger: log,
		config: cfg,
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.background, a.ctx = errgroup.WithContext(ctx)

	readiness := make(map[string]httpd.Pinger)

	store, err := a.newSessionStore()
	if err != nil {
		cancel()
		return nil, err
	}
	a.sessions = store
	readiness["sessions"] = store

	lms := integration.NewLMSClient(integration.ClientConfig{
		BaseURL:         cfg.API.BaseURL,
		RefreshEndpoint: cfg.API.RefreshEndpoint,
		Timeout:         cfg.API.Timeout,
		MaxIdleConns:    cfg.API.MaxIdleConns,
		IdleConnTimeout: cfg.API.IdleConnTimeout,
	}, store, log)
	readiness["api"] = lms

	a.publisher = a.newPublisher()
	a.pool = worker.NewPool(cfg.Worker.MaxWorkers, log.With().Str("component", "worker_pool").Logger())
	activity := worker.NewActivityWorker(a.pool, a.publisher, log.With().Str("component", "activity").Logger())

	a.workspaces = workspace.NewStore(cfg.Workspace.IdleTTL, log.With().Str("component", "workspaces").Logger())

	services := httpd.Services{
		Auth:      service.NewAuthService(lms.Auth, store, a.workspaces, cfg.Session.TTL, log),
		Catalog:   service.NewCatalogService(lms.Courses, activity, log),
		Player:    service.NewPlayerService(lms.Courses, lms.Submissions, a.workspaces, activity, log),
		Editor:    service.NewEditorService(lms.Courses, lms.Content, a.workspaces, log),
		Review:    service.NewReviewService(lms.Content, lms.Submissions, log),
		Analytics: service.NewAnalyticsService(lms.Analytics, log),
		Messaging: service.NewMessagingService(lms.Messaging, lms.Courses, a.pool, activity, log),
	}

	h, err := httpd.NewHandler(services, a.workspaces, readiness, httpd.Options{
		Cookie: middleware.SessionCookie{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
			TTL:    cfg.Session.TTL,
		},
		MediaOrigin:    cfg.API.MediaURL,
		RequestTimeout: cfg.Server.RequestTimeout,
		PollInterval:   cfg.Messaging.PollInterval,
		SocketTimeout:  cfg.Messaging.WriteTimeout,
		CSRF: httpd.CSRFOptions{
			Enabled: cfg.CSRF.Enabled,
			AuthKey: []byte(cfg.CSRF.AuthKey),
			Secure:  cfg.CSRF.Secure,
		},
	}, log)
	if err != nil {
		cancel()
		a.closeStores()
		return nil, err
	}

	router := chi.NewRouter()
	a.server = server.NewServer(server.ServerConfig{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, log)

	a.server.SetupMiddleware(
		middleware.NewCORS(cfg.CORS),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
	)

	// маршруты после middleware
	h.RegisterRoutes(router)

	if err := a.startBackground(); err != nil {
		cancel()
		a.closeStores()
		return nil, err
	}

	return a, nil
}

func (a *App) newSessionStore() (session.Store, error) {
	switch a.config.Session.Driver {
	case "postgres":
		db, err := database.NewPostgres(a.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session database: %w", err)
		}
		a.db = repository.NewPostgresRepository(db, a.logger)
		a.logger.Info().Msg("Sessions are stored in PostgreSQL")
		return repository.NewSessionRepository(db, a.logger), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redis = client
		a.logger.Info().Str("addr", a.config.Redis.Addr).Msg("Sessions are stored in Redis")
		return repository.NewRedisSessionStore(client, a.config.Redis.KeyPrefix, a.logger), nil

	default:
		a.logger.Warn().Msg("Sessions are kept in memory and will not survive a restart")
		return session.NewMemoryStore(), nil
	}
}

// newPublisher: без RabbitMQ события активности только пишутся в лог.
func (a *App) newPublisher() integration.ActivityPublisher {
	cfg := a.config.RabbitMQ
	if !cfg.Enabled {
		return integration.NewNopPublisher(a.logger)
	}

	publisher, err := integration.NewActivityPublisher(cfg.URL, cfg.Exchange, cfg.RoutingKey, cfg.QueueName, a.logger)
	if err != nil {
		a.logger.Warn().Err(err).Msg("RabbitMQ is unavailable, activity events will not be published")
		return integration.NewNopPublisher(a.logger)
	}
	return publisher
}

// startBackground поднимает пул воркеров и уборщиков; их гасит Shutdown.
func (a *App) startBackground() error {
	if err := a.pool.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	a.background.Go(func() error {
		a.workspaces.RunJanitor(a.ctx, a.config.Workspace.SweepInterval)
		return nil
	})

	if sweeper, ok := a.sessions.(expiredSessions); ok {
		a.background.Go(func() error {
			a.sweepSessions(a.ctx, sweeper)
			return nil
		})
	}

	return nil
}

// Run блокируется, пока сервер не остановлен.
func (a *App) Run() error {
	if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) sweepSessions(ctx context.Context, sweeper expiredSessions) {
	interval := a.config.Workspace.SweepInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sweeper.DeleteExpired(ctx); err != nil {
				a.logger.Error().Err(err).Msg("Failed to delete expired sessions")
			}
		}
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down LMS web...")

	// сначала перестаем принимать запросы, потом гасим фон
	err := a.server.Shutdown(ctx)

	a.cancel()
	a.background.Wait()

	if a.pool != nil {
		if err := a.pool.Stop(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop worker pool")
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	a.closeStores()
	return err
}

func (a *App) closeStores() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close redis connection")
		}
	}
}
