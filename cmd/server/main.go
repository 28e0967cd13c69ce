package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nithish2321/EntraceEase/internal/config"
	"github.com/nithish2321/EntraceEase/internal/database"
	"github.com/nithish2321/EntraceEase/internal/handler"
	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/metrics"
	"github.com/nithish2321/EntraceEase/internal/middleware"
	"github.com/nithish2321/EntraceEase/internal/queue"
	"github.com/nithish2321/EntraceEase/internal/repository"
	"github.com/nithish2321/EntraceEase/internal/router"
	"github.com/nithish2321/EntraceEase/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	err = run(cfg, log)
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until a signal arrives or the listener fails.  Every resource
// opened here is closed on return.
func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		return err
	}
	defer func() { _ = store.Close() }()
	log.Info("store ready", "driver", cfg.Store.Driver)

	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable; cache and rate limit disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	deps := service.Deps{
		Cache:   middleware.NewCachePurger(cacheCfg, rdb),
		Metrics: metrics.NewMetrics("entranceease", prometheus.DefaultRegisterer),
		Log:     log,
	}

	var notifier service.Notifier
	var publisher *queue.Publisher
	if cfg.Queue.Enabled {
		publisher = queue.NewPublisher(cfg.Queue.URL, cfg.Queue.HallTicketQueue, log)
		notifier = publisher
		defer func() { _ = publisher.Close() }()
	}

	directory := service.NewDirectoryService(store, deps)
	bookings := service.NewBookingService(store, deps)
	allocation := service.NewAllocationService(store, notifier, deps)

	if cfg.Queue.Enabled && cfg.Queue.ConsumerEnabled {
		consumer := &queue.Consumer{
			URL:      cfg.Queue.URL,
			Queue:    cfg.Queue.HallTicketQueue,
			LogDir:   cfg.Queue.LogDir,
			Recorder: allocation,
			Log:      log,
		}
		go func() {
			if err := queue.StartHallTicketConsumer(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("hall ticket consumer stopped", "error", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.ContextTimeout(30 * time.Second))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	router.Register(e, router.Handlers{
		Admin:      handler.NewAdminHandler(directory, log),
		College:    handler.NewCollegeHandler(bookings, allocation, directory, log),
		TestCenter: handler.NewTestCenterHandler(directory, log),
		Student:    handler.NewStudentHandler(directory, log),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     cacheCfg,
		RateLimit: rlCfg,
		Redis:     rdb,
		Log:       log,
	})

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var failed error
	select {
	case <-ctx.Done():
	case failed = <-serveErr:
		if failed != nil {
			log.Error("server failed", "error", failed)
		}
		stop()
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	return failed
}

// openStore connects the backend named by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return repository.NewMemoryStore(), nil
	case config.DriverMongo:
		client, err := repository.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewMongoStore(ctx, client, cfg.MongoDatabase)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return store, nil
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return repository.NewMySQLStore(db), nil
	}
}
