package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/tair/inventory-console/internal/console"
	consoleHTTP "github.com/tair/inventory-console/internal/console/delivery/http"
	"github.com/tair/inventory-console/internal/product"
	"github.com/tair/inventory-console/internal/product/client"
	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/repository"
	"github.com/tair/inventory-console/internal/product/usecase/command"
	"github.com/tair/inventory-console/kafka"
	"github.com/tair/inventory-console/pkg/config"
	"github.com/tair/inventory-console/pkg/logger"
	"github.com/tair/inventory-console/pkg/tracing"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Init("inventory-console", true, "info")
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	serviceName := cfg.App.Name + "-console"
	logger.Init(serviceName, cfg.App.IsDevelopment(), cfg.App.LogLevel)
	logger.SetLevel(cfg.App.LogLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", cfg.App.Env).
		Bool("demo_mode", cfg.Console.DemoMode).
		Msg("Starting inventory console")

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher *kafka.Publisher
	if cfg.Kafka.Enabled && cfg.Console.DemoMode {
		publisher, err = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable - stock events will not be published")
		} else {
			defer publisher.Close()
		}
	}

	svc, err := dataService(cfg, publisher)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize data service")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	feed := console.NewFeed(cfg.Console.NotificationTTL)
	engine := console.New(ctx, svc, console.Notifiers(feed, console.LogNotifier{}), console.NewMetrics(reg), console.RealScheduler{}, console.Config{
		Debounce:       cfg.Console.Debounce,
		PageSize:       cfg.Console.PageSize,
		RequestTimeout: cfg.Console.RequestTimeout,
		Actor:          cfg.Console.Actor,
	})
	defer engine.Close()

	if err := engine.Start(ctx); err != nil {
		logger.Logger.Warn().Err(err).Msg("Initial load failed - the console starts empty")
	}

	app := consoleHTTP.NewApp(consoleHTTP.NewConsoleHandler(engine, feed, reg), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Logger.Info().Str("addr", cfg.Console.Addr).Msg("Console API started")
		return app.Listen(cfg.Console.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info().Msg("Shutting down console...")
		return app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout)
	})

	if cfg.Kafka.Enabled {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{cfg.Kafka.Topic})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable - stock events from other operators are ignored")
		} else {
			defer consumer.Close()
			consumer.RegisterHandler(kafka.EventTypeStockChanged, engine.HandleStockEvent)
			g.Go(func() error {
				return consumer.Run(gctx)
			})
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Logger.Error().Err(err).Msg("Inventory console stopped with error")
		return
	}
	logger.Logger.Info().Msg("Inventory console stopped")
}

// dataService picks the in-process simulation or the REST backend.
func dataService(cfg *config.Config, publisher *kafka.Publisher) (domain.DataService, error) {
	if !cfg.Console.DemoMode {
		logger.Logger.Info().Str("backend_url", cfg.Console.BackendURL).Msg("Using REST backend")
		return client.New(client.Config{
			BaseURL: cfg.Console.BackendURL,
			Timeout: cfg.Console.RequestTimeout,
			Actor:   cfg.Console.Actor,
			Breaker: client.BreakerConfig{
				MaxRequests:      cfg.Breaker.MaxRequests,
				Interval:         cfg.Breaker.Interval,
				Timeout:          cfg.Breaker.Timeout,
				FailureThreshold: cfg.Breaker.FailureThreshold,
			},
		}), nil
	}

	latency := product.Latency{}
	if cfg.Console.SimulateLatency {
		latency = product.DemoLatency()
	}

	var events command.StockEventPublisher
	if publisher != nil {
		events = publisher
	}

	logger.Logger.Info().Bool("simulate_latency", cfg.Console.SimulateLatency).Msg("Using simulated backend")
	return product.InitializeLocalService(repository.NewMemoryRepository(), nil, 0, events, latency)
}
