package main

import (
	"context"
	"log"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/queueflow/backend/api/handler"
	"github.com/queueflow/backend/internal/config"
	"github.com/queueflow/backend/internal/hub"
	"github.com/queueflow/backend/internal/infrastructure/journal"
	"github.com/queueflow/backend/internal/infrastructure/monitor"
	pgInfra "github.com/queueflow/backend/internal/infrastructure/postgres"
	redisInfra "github.com/queueflow/backend/internal/infrastructure/redis"
	"github.com/queueflow/backend/internal/middleware"
	"github.com/queueflow/backend/internal/router"
	"github.com/queueflow/backend/internal/services"
	"github.com/queueflow/backend/internal/services/lifecycle"
	"github.com/queueflow/backend/pkg/httpcontext"
	"github.com/queueflow/backend/pkg/logger"
	"github.com/queueflow/backend/repository/postgres"
	"github.com/queueflow/backend/usecase/dispatch"
	"github.com/queueflow/backend/usecase/estimate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	journalStore, err := journal.Open(cfg.Journal.Path, "activity")
	if err != nil {
		zapLogger.Fatal("failed to open activity journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	notifyHub := hub.New(hub.Config{
		BufferSize:   cfg.Hub.BufferSize,
		HeartbeatTTL: cfg.Hub.HeartbeatTTL,
	}, zapLogger)

	// Without Redis the hub still serves this instance's connections; the
	// bridge only adds cross-instance fan-out.
	var redisClient *redislib.Client
	var sink dispatch.EventSink = notifyHub
	if cfg.Redis.Enabled {
		redisClient, err = redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})

		bridge := hub.NewBridge(notifyHub, redisClient, cfg.Hub.EventChannel, zapLogger)
		bridge.Start(appCtx)
		manager.Register("event_bridge", func(ctx context.Context) error {
			return bridge.Stop()
		})
		sink = bridge
	}

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	ticketRepo := postgres.NewTicketRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	sequenceAllocator := postgres.NewSequenceAllocator(pool)

	estimator := estimate.New(ticketRepo, catalogRepo, cfg.Queue.DefaultServiceMinutes)

	dispatcher := dispatch.New(
		ticketRepo,
		catalogRepo,
		sequenceAllocator,
		estimator,
		sink,
		journalStore,
		zapLogger,
		dispatch.Config{
			AutoAssign:  cfg.Queue.AutoAssign,
			LockTimeout: cfg.Queue.LockTimeout,
		},
	)

	janitor := services.NewJanitor(notifyHub, journalStore, zapLogger, services.JanitorConfig{
		Interval:         cfg.Journal.SweepInterval,
		JournalRetention: time.Duration(cfg.Journal.RetentionHours) * time.Hour,
	})
	janitor.Start()
	manager.Register("janitor", func(ctx context.Context) error {
		janitor.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Ticket:   apiHandler.NewTicketHandler(dispatcher, ctxAdapter, zapLogger),
		Queue:    apiHandler.NewQueueHandler(dispatcher, ctxAdapter, zapLogger),
		Events:   apiHandler.NewEventsHandler(dispatcher, notifyHub, ctxAdapter, zapLogger),
		Activity: apiHandler.NewActivityHandler(journalStore, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	identity := middleware.Identity(cfg.Auth.Secret, zapLogger)
	r := router.New(handlers, identity)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
