package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferdian3456/tiergate/internal/config"
	deliverytelegram "github.com/ferdian3456/tiergate/internal/delivery/telegram"
	middleware "github.com/ferdian3456/tiergate/internal/exception"
	tracemiddleware "github.com/ferdian3456/tiergate/internal/middleware"
	"github.com/ferdian3456/tiergate/internal/observability"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/google/uuid"
	zapLog "go.uber.org/zap"
)

func main() {
	time.Local = time.UTC
	// Flush zap buffered log first then cancel the context for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zap := config.NewZap()
	koanf := config.NewKoanf(zap)

	// Hard startup preconditions: refuse to start on missing credentials
	// instead of degrading at runtime.
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "POSTGRES_URL", "REDIS_URL"} {
		if koanf.String(key) == "" {
			zap.Fatal("missing required environment variable: " + key)
		}
	}

	if koanf.String("OTEL_SERVICE_NAME") != "" {
		observabilityConfig := config.LoadObservabilityConfig(koanf, zap)
		shutdownTracing, err := observability.Init(context.Background(), observabilityConfig, zap)
		if err != nil {
			// Tracing is optional; the gate keeps running without it.
			zap.Warn("failed to initialize tracing", zapLog.Error(err))
		} else {
			defer func() { _ = shutdownTracing(shutdownCtx) }()
		}
	}

	rds := config.NewRedisClient(koanf, zap)
	postgresql := config.NewPostgresqlPool(koanf, zap)
	tg := config.NewTelegramClient(koanf, zap)

	publicBaseURL := koanf.String("PUBLIC_BASE_URL")
	webhookMode := publicBaseURL != ""

	secret := koanf.String("TELEGRAM_WEBHOOK_SECRET")
	if secret == "" {
		secret = uuid.NewString()
	}

	fiber := config.NewFiber()
	fiber.Use(middleware.Recovery(zap))
	fiber.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	fiber.Use(otelfiber.Middleware())
	fiber.Use(tracemiddleware.TraceLoggerMiddleware(zap))

	dispatcher := config.Server(&config.ServerConfig{
		Router:      fiber,
		DB:          postgresql,
		DBCache:     rds,
		Telegram:    tg,
		Log:         zap,
		Config:      koanf,
		WebhookMode: webhookMode,
		Secret:      secret,
	})

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	var err error
	if webhookMode {
		err = tg.SetWebhook(runCtx, publicBaseURL+"/telegram/webhook", secret)
		if err != nil {
			zap.Fatal("failed to register webhook", zapLog.Error(err))
		}

		GO_SERVER_PORT := koanf.String("GO_SERVER")
		if GO_SERVER_PORT == "" {
			GO_SERVER_PORT = ":8080"
		}

		zap.Info("Server is running on: " + GO_SERVER_PORT)

		go func() {
			err = fiber.Listen(GO_SERVER_PORT)
			if err != nil {
				zap.Fatal("error starting server", zapLog.Error(err))
			}
		}()
	} else {
		// Pull delivery: drop any stale webhook registration first, or
		// getUpdates is rejected by the platform.
		err = tg.DeleteWebhook(runCtx)
		if err != nil {
			zap.Warn("failed to delete webhook before polling", zapLog.Error(err))
		}

		listener := deliverytelegram.NewListener(dispatcher, tg, zap)
		zap.Info("Bot is starting in long-polling mode")

		go listener.Run(runCtx)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	zap.Info("got one of stop signals")

	stopRun()

	if webhookMode {
		err = fiber.ShutdownWithContext(shutdownCtx)
		if err != nil {
			zap.Warn("timeout, forced kill!", zapLog.Error(err))
			_ = zap.Sync()
			os.Exit(1)
		}
	}

	postgresql.Close()
	_ = rds.Close()

	zap.Info("server has shut down gracefully")
	_ = zap.Sync()
}
