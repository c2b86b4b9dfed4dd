package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/trailhead-backend/internal/http"
	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/realtime"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type App struct {
	Log        *logger.Logger
	Cfg        Config
	Clients    Clients
	Repos      Repos
	Services   Services
	Middleware Middleware
	Handlers   Handlers

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context, serviceName string) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(clients.DB, log)
	serviceset, err := wireServices(clients.DB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Middleware:   wireMiddleware(log, serviceset, reposet),
		Handlers:     wireHandlers(log, serviceset, clients),
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: bus to hub forwarding, pool and redis collectors, and
// the saga retry loop.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	hub := a.Clients.Hub
	if err := a.Clients.Bus.StartForwarder(ctx, func(m realtime.Message) { hub.Broadcast(m) }); err != nil {
		return fmt.Errorf("start realtime forwarder: %w", err)
	}

	a.Clients.Metrics.StartDBCollector(ctx, a.Log, a.Clients.DB)
	if a.Clients.Redis != nil {
		a.Clients.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
	}

	go a.retrySagas(ctx)
	return nil
}

func (a *App) retrySagas(ctx context.Context) {
	if a.Cfg.SagaRetryInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.Cfg.SagaRetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Services.Saga.RetryFailed(ctx, a.Cfg.SagaRetryAge, a.Cfg.SagaRetryBatch)
			if err != nil {
				a.Log.Warn("saga retry failed", "error", err)
				continue
			}
			if n > 0 {
				a.Log.Info("saga retry compensated runs", "count", n)
			}
		}
	}
}

// RunAPI serves the user-facing API until ctx is cancelled.
func (a *App) RunAPI(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := http.NewServer(a.Log, ":"+a.Cfg.Port, wireRouter(a), a.Cfg.ShutdownTimeout)
	return srv.Run(ctx)
}

// RunAdmin serves the admin API until ctx is cancelled.
func (a *App) RunAdmin(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := http.NewServer(a.Log, ":"+a.Cfg.AdminPort, wireAdminRouter(a), a.Cfg.ShutdownTimeout)
	return srv.Run(ctx)
}

// Seed loads a catalog YAML file. An empty path falls back to SEED_CATALOG_PATH and is a
// no-op when both are unset.
func (a *App) Seed(ctx context.Context, path string) (*services.SeedResult, error) {
	if path == "" {
		path = a.Cfg.SeedCatalogPath
	}
	if path == "" {
		return nil, nil
	}
	return a.Services.Seeder.LoadFile(ctx, path)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
