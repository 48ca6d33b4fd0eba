package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/config"
	"github.com/oksasatya/uptrade-api/internal/application"
	"github.com/oksasatya/uptrade-api/internal/container"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	"github.com/oksasatya/uptrade-api/internal/infrastructure/memory"
	"github.com/oksasatya/uptrade-api/internal/infrastructure/notify"
	pginfra "github.com/oksasatya/uptrade-api/internal/infrastructure/postgres"
	"github.com/oksasatya/uptrade-api/internal/retention"
	"github.com/oksasatya/uptrade-api/internal/router"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
	"github.com/oksasatya/uptrade-api/pkg/metrics"
	"github.com/oksasatya/uptrade-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Record store, chosen once
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer store.Close()

	// Redis (optional)
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Warn("redis unreachable; rate limits fail open and retention falls back to a local lock")
		}
	}

	jwtManager := helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName)

	// Account emails go through RabbitMQ to the email worker
	var notifier application.Notifier = application.NoopNotifier{}
	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; account emails disabled")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
			notifier = notify.NewMailNotifier(cfg, pub)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Chart retention
	var sweeper *retention.Service
	if cfg.RetentionEnabled {
		sweeper, err = newRetention(cfg, logger, store, rdb, metrics.NewJobMetrics(reg))
		if err != nil {
			log.Fatalf("failed to init retention: %v", err)
		}
	}

	// Provide singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetStore(store)
	container.SetRedis(rdb)
	container.SetJWT(jwtManager)
	container.SetNotifier(notifier)
	container.SetRetention(sweeper)
	container.SetMetrics(reg)

	engine := router.NewEngine(cfg, logger)
	registry := router.NewRegistry(engine, "/api")
	router.InitModules(registry, router.DepsFromContainer())
	registry.RegisterAll()

	if sweeper != nil {
		go func() { _ = sweeper.Run(ctx) }()
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "store": store.Driver()}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Store, error) {
	if cfg.UseMemoryStore() {
		store := memory.New(memory.WithRetentionDays(cfg.RetentionDays))
		if err := memory.Seed(store, memory.SeedOptions{Students: cfg.MockStudents, TradesPerStudent: cfg.MockTradesPerStudent}); err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"students":           cfg.MockStudents,
			"trades_per_student": cfg.MockTradesPerStudent,
		}).Warn("using in-memory store with demo data")
		return store, nil
	}

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := pginfra.MigrateUp(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	container.SetPGPool(pool)
	return pginfra.NewStore(pool, logger, cfg.RetentionDays), nil
}

func newRetention(cfg *config.Config, logger *logrus.Logger, store repository.Store, rdb *redis.Client, m *metrics.JobMetrics) (*retention.Service, error) {
	var lock retention.Lock = &retention.LocalLock{}
	if rdb != nil {
		rl, err := retention.NewRedisLock(rdb, cfg.RetentionLockKey, 0)
		if err != nil {
			return nil, err
		}
		lock = retention.NewFallbackLock(rl, logger)
	}
	return retention.NewService(retention.ServiceParams{
		Logger:   logger,
		Store:    store,
		Lock:     lock,
		Metrics:  m,
		Interval: cfg.RetentionInterval,
		Window:   cfg.RetentionWindow(),
	})
}
