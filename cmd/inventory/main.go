package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tair/inventory-console/internal/product"
	httpDelivery "github.com/tair/inventory-console/internal/product/delivery/http"
	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/repository"
	"github.com/tair/inventory-console/internal/product/usecase/command"
	"github.com/tair/inventory-console/kafka"
	"github.com/tair/inventory-console/pkg/config"
	"github.com/tair/inventory-console/pkg/database"
	"github.com/tair/inventory-console/pkg/logger"
	"github.com/tair/inventory-console/pkg/tracing"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Init("inventory-service", true, "info")
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	serviceName := cfg.App.Name + "-service"
	logger.Init(serviceName, cfg.App.IsDevelopment(), cfg.App.LogLevel)
	logger.SetLevel(cfg.App.LogLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting inventory service")

	tp, err := tracing.InitTracer(serviceName, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceVersion: cfg.App.Version,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	base, ping, closeStorage, err := openStorage(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer closeStorage()

	rdb := openRedis(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	var publisher command.StockEventPublisher
	if cfg.Kafka.Enabled {
		p, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable - stock events will not be published")
		} else {
			defer p.Close()
			publisher = p
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize handler with Wire DI
	handler, err := product.InitializeHTTPHandler(base, rdb, product.CacheTTL(cfg.Redis.TTL), publisher, reg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	router := mux.NewRouter()
	router.Use(httpDelivery.LoggingMiddleware)
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, ping)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(c.Handler(router), serviceName),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Logger.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Logger.Error().Err(err).Msg("Inventory service stopped with error")
		return
	}
	logger.Logger.Info().Msg("Inventory service stopped")
}

// openStorage returns the product repository for the configured driver, a
// database ping for /health (nil for memory) and a close function.
func openStorage(cfg *config.Config) (domain.ProductRepository, func(context.Context) error, func(), error) {
	if cfg.Storage.Driver != "postgres" {
		logger.Logger.Info().Msg("Using in-memory storage with demo data")
		return repository.NewMemoryRepository(), nil, func() {}, nil
	}

	db, err := database.NewGormConnection(cfg.Database.Connection())
	if err != nil {
		return nil, nil, nil, err
	}
	repo := repository.NewGormProductRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		return nil, nil, nil, err
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	return repo, pinger(db), func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

func pinger(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func openRedis(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", cfg.Addr).
			Msg("Failed to connect to Redis - search cache disabled")
		_ = rdb.Close()
		return nil
	}
	logger.Logger.Info().Str("redis_addr", cfg.Addr).Msg("Connected to Redis for search cache")
	return rdb
}
