package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/pg-finder/backend"
	"github.com/yourorg/pg-finder/internal/auth"
	"github.com/yourorg/pg-finder/internal/catalog"
	"github.com/yourorg/pg-finder/internal/config"
	"github.com/yourorg/pg-finder/internal/events"
	"github.com/yourorg/pg-finder/internal/favorites"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/notify"
	"github.com/yourorg/pg-finder/internal/redisx"
	"github.com/yourorg/pg-finder/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(backend.Options{
		BaseURL:           cfg.Backend.URL,
		AnonKey:           cfg.Backend.AnonKey,
		Timeout:           cfg.Backend.TimeoutDuration(),
		RetryMax:          cfg.Backend.RetryMax,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Logger:            log.WithFields(map[string]interface{}{"component": "backend"}),
	})

	var source catalog.Source = client
	if cfg.Data.Source == config.DataSourcePostgres {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		source = st
	}

	rc := redisx.New(cfg.Database.Redis.Address, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	defer rc.Close()
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rc.Ping(pctx)
	cancel()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	var favRepo favorites.Repository = favorites.NewRedisRepository(rc, log)
	if cfg.Favorites.Store == config.FavoritesStoreMemory {
		favRepo = favorites.NewMemoryRepository()
	}

	pub := events.NewInMemory(cfg.Notifications.QueueSize)
	var notified <-chan struct{}
	if cfg.Notifications.Enabled {
		mailer, err := newMailer(ctx, cfg, log)
		if err != nil {
			return err
		}
		d := notify.NewDispatcher(pub, mailer, notify.Options{
			Inbox:     cfg.Notifications.Inbox,
			Workers:   cfg.Notifications.Workers,
			QueueSize: cfg.Notifications.QueueSize,
		}, log.WithFields(map[string]interface{}{"component": "notify"}))
		go d.Run(ctx)
		notified = d.Done()
	} else {
		pub = events.Discard
	}

	router := BuildRouter(RouterDeps{
		Config: cfg,
		Catalog: catalog.NewService(catalog.Deps{
			Listings:  source,
			Reviews:   source,
			Inquiries: source,
			Publisher: pub,
			Logger:    log,
		}),
		Favorites: favorites.NewService(favRepo),
		Sessions:  auth.NewService(client, rc, cfg.Session.TTL, log.WithFields(map[string]interface{}{"component": "auth"})),
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("pg-finder listening", map[string]interface{}{"addr": srv.Addr, "dataSource": cfg.Data.Source})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	sctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()
	err = srv.Shutdown(sctx)
	if notified != nil {
		select {
		case <-notified:
		case <-sctx.Done():
			log.Warn("notification queue not drained before shutdown timeout", nil)
		}
	}
	return err
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Postgres.GetDSN(), store.Options{
		MaxOpen: cfg.Database.Postgres.MaxConnections,
		MaxIdle: cfg.Database.Postgres.MaxIdle,
	})
	if err != nil {
		return nil, fmt.Errorf("store open: %w", err)
	}
	tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := st.Ping(tctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := st.Migrate(tctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return st, nil
}

func newMailer(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Mailer, error) {
	if cfg.Notifications.Mailer == "ses" {
		m, err := notify.NewSESMailer(ctx, cfg.Notifications.AWSRegion, cfg.Notifications.FromEmail)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return notify.LogMailer{Logger: log}, nil
}
