package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"doc-retriever/config"
	"doc-retriever/consumer"
	"doc-retriever/internal/auth"
	"doc-retriever/logger"
	appOtel "doc-retriever/utils/otel"
)

// App holds all components of the doc-retriever service.
type App struct {
	httpServer    *http.Server
	redisConsumer *consumer.Consumer
	otelShutdown  appOtel.ShutdownFunc
}

// Run initializes all components and starts the service.
// It blocks until ctx is cancelled, then performs graceful shutdown.
func Run(ctx context.Context) error {
	// ── OpenTelemetry ──
	otelCfg := appOtel.ConfigFromEnv()
	otelShutdown, err := appOtel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	// ── Logger ──
	logger.InitWithOTel(otelCfg.Enabled)
	logger.Logger.Info("Starting doc-retriever",
		"service", otelCfg.ServiceName,
		"otel_enabled", otelCfg.Enabled,
	)

	// ── Load config ──
	appCfg, err := config.Load()
	if err != nil {
		logger.Logger.Error("Failed to load config", "err", err)
		return err
	}

	// ── Retriever ──
	r, health, err := NewRetriever(ctx, appCfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize retriever", "kind", appCfg.Retriever.Kind, "err", err)
		return err
	}

	// ── Use cases ──
	pipeline, err := NewPipeline(appCfg, r)
	if err != nil {
		logger.Logger.Error("Failed to build ingestion pipeline", "err", err)
		return err
	}
	logger.Logger.Info("Ingestion pipeline ready", "extensions", pipeline.Registry.Extensions())

	// ── Service auth ──
	var authClient *auth.Client
	if appCfg.Auth.ServiceSecret != "" {
		authClient, err = auth.NewClient(auth.Config{ServiceName: otelCfg.ServiceName, ServiceSecret: appCfg.Auth.ServiceSecret})
		if err != nil {
			return err
		}
	} else {
		logger.Logger.Warn("SERVICE_SECRET not set, write endpoints are unauthenticated")
	}

	// ── Redis Streams Consumer ──
	redisConsumer := startConsumer(ctx, pipeline)

	// ── Servers ──
	app := &App{
		httpServer:    newHTTPServer(appCfg.HTTP, pipeline, health, authClient, otelCfg.Enabled),
		redisConsumer: redisConsumer,
		otelShutdown:  otelShutdown,
	}

	go func() {
		logger.Logger.Info("http listen", "addr", appCfg.HTTP.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Error("http", "err", err)
		}
	}()

	// ── Wait for shutdown signal ──
	<-ctx.Done()
	app.shutdown()
	return nil
}

func startConsumer(ctx context.Context, pipeline *Pipeline) *consumer.Consumer {
	consumerCfg := consumer.ConfigFromEnv()
	if !consumerCfg.Enabled {
		logger.Logger.Info("Redis Streams consumer disabled")
		return nil
	}
	if pipeline.Index == nil {
		logger.Logger.Warn("Redis Streams consumer needs a retriever, not starting")
		return nil
	}

	eventHandler := consumer.NewIndexEventHandler(pipeline.Index, logger.Logger)
	redisConsumer, err := consumer.NewConsumer(consumerCfg, eventHandler, logger.Logger)
	if err != nil {
		logger.Logger.Error("Failed to create Redis Streams consumer", "err", err)
		return nil
	}
	if err := redisConsumer.Start(ctx); err != nil {
		logger.Logger.Error("Failed to start Redis Streams consumer", "err", err)
		return nil
	}

	logger.Logger.Info("Redis Streams consumer started",
		"stream", consumerCfg.StreamKey,
		"group", consumerCfg.GroupName,
	)
	return redisConsumer
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http shutdown error", "err", err)
	}
	if a.redisConsumer != nil {
		a.redisConsumer.Stop()
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := a.otelShutdown(otelCtx); err != nil {
		fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
	}
}
