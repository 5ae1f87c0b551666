// Package app assembles the directory service from its parts.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/staffdir/staffdir/pkg/health"
	"github.com/staffdir/staffdir/pkg/kafka"

	"github.com/staffdir/staffdir/internal/auth"
	"github.com/staffdir/staffdir/internal/config"
	"github.com/staffdir/staffdir/internal/directory"
	"github.com/staffdir/staffdir/internal/event"
	handlerhttp "github.com/staffdir/staffdir/internal/handler/http"
	"github.com/staffdir/staffdir/internal/repository/kv"
	"github.com/staffdir/staffdir/internal/store"
	"github.com/staffdir/staffdir/internal/validation"
)

// App owns the service's long-lived components and their lifecycle.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	kvstore  store.Store
	sessions *auth.Manager
	dir      *directory.Service
	producer *kafka.Producer
	server   *http.Server
}

// New wires the full service. The store is opened, prior state is
// rehydrated, and the HTTP server is ready to run.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	kvstore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{cfg: cfg, logger: log, kvstore: kvstore}

	var publisher event.Publisher = event.NopPublisher{}
	if cfg.KafkaEnabled {
		a.producer = kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), log)
		publisher = event.NewKafkaPublisher(a.producer, log)
	}

	a.sessions = auth.NewManager(
		auth.NewStaticProvider(auth.DefaultIdentities()),
		kv.NewSessionRepository(kvstore, log),
		cfg.LoginDelay, log)
	if err := a.sessions.Rehydrate(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("rehydrate session: %w", err)
	}

	a.dir = directory.NewService(kv.NewProfileRepository(kvstore, log), publisher, log)
	if err := a.dir.Load(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("load directory: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.ServiceName)

	healthHandler := health.NewHandler()
	healthHandler.Register("store", kvstore.Ping)
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	router := handlerhttp.NewRouter(handlerhttp.RouterConfig{
		ServiceName: cfg.ServiceName,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
		Validate:    tokens.Validate,
		Auth:        handlerhttp.NewAuthHandler(a.sessions, tokens),
		Users:       handlerhttp.NewUserHandler(a.dir, validation.New()),
		Health:      healthHandler,
	})

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down")
	err := a.server.Shutdown(shutdownCtx)
	a.close()
	return err
}

func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close failed", slog.Any("error", err))
		}
	}
	if a.kvstore != nil {
		if err := a.kvstore.Close(); err != nil {
			a.logger.Error("store close failed", slog.Any("error", err))
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	case config.BackendRedis:
		return store.OpenRedis(ctx, store.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return store.NewMemory(), nil
	}
}
