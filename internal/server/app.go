// Package server assembles the portal: account storage, the session backend,
// the connection resolver and the HTTP server, and runs them until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/webportal/internal/cryptox"
	"github.com/dmitrijs2005/webportal/internal/logging"
	"github.com/dmitrijs2005/webportal/internal/server/config"
	"github.com/dmitrijs2005/webportal/internal/server/httpserver"
	"github.com/dmitrijs2005/webportal/internal/server/metrics"
	"github.com/dmitrijs2005/webportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/webportal/internal/server/resolver"
	"github.com/dmitrijs2005/webportal/internal/server/services"
	"github.com/dmitrijs2005/webportal/internal/server/sessions"
	"github.com/redis/go-redis/v9"
)

var newRedisClient = func(cfg *config.Config) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	sessions    sessions.Store
	redis       redis.UniversalClient
	httpServer  *httpserver.HTTPServer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogFormat, os.Stdout)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logger)
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}
	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	cfg := app.config

	if err := app.initStorage(ctx); err != nil {
		return err
	}

	hasher, err := cryptox.NewHasher(cryptox.DefaultParams)
	if err != nil {
		return fmt.Errorf("hasher init error: %w", err)
	}

	m := metrics.New()
	accountService := services.NewAccountService(app.repomanager, app.sessions, hasher, cfg, app.logger, m)
	res := resolver.New(cfg.Candidates, app.logger, resolver.WithRecorder(m))

	router, err := httpserver.NewRouter(httpserver.Options{
		Accounts:       accountService,
		Resolver:       res,
		Logger:         app.logger,
		Metrics:        m,
		DB:             app.repomanager.Conn(),
		RequestTimeout: cfg.RequestTimeout,
		SecureCookies:  cfg.SecureCookies,
	})
	if err != nil {
		return err
	}

	app.httpServer = httpserver.NewHTTPServer(cfg.EndpointAddrHTTP, app.logger, router)
	return nil
}

// initStorage picks the account store by DSN and the session store by
// backend name.
func (app *App) initStorage(ctx context.Context) error {
	cfg := app.config

	if cfg.DatabaseDSN == "" {
		app.logger.Warn(ctx, "no database DSN configured, accounts are kept in memory")
		app.repomanager = repomanager.NewInMemoryRepositoryManager()
	} else {
		rm, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("db init error: %w", err)
		}
		app.repomanager = rm
		if err := rm.RunMigrations(ctx); err != nil {
			return fmt.Errorf("migrations error: %w", err)
		}
	}

	switch cfg.SessionBackend {
	case "", config.SessionBackendMemory:
		if cfg.DatabaseDSN == "" {
			app.sessions = app.repomanager.Sessions()
		} else {
			app.sessions = sessions.NewMemoryStore()
		}
	case config.SessionBackendPostgres:
		if cfg.DatabaseDSN == "" {
			return errors.New("postgres session backend requires a database DSN")
		}
		app.sessions = app.repomanager.Sessions()
	case config.SessionBackendRedis:
		app.redis = newRedisClient(cfg)
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis init error: %w", err)
		}
		app.sessions = sessions.NewRedisStore(app.redis, cfg.RedisPrefix)
	default:
		return fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}

	app.logger.Info(ctx, "storage ready", "session_backend", cfg.SessionBackend, "persistent_accounts", cfg.DatabaseDSN != "")
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the stores.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		sessions.RunCleanup(ctx, app.sessions, app.config.SessionCleanupInterval, app.logger)
	}()

	wg.Wait()

	app.close(context.WithoutCancel(ctx))
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if app.repomanager != nil {
		if err := app.repomanager.Close(); err != nil {
			app.logger.Warn(ctx, "store close failed", "error", err)
		}
	}
}
