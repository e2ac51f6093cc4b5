package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/task-notifier/internal/config"
	"github.com/benvon/task-notifier/internal/database"
	"github.com/benvon/task-notifier/internal/ledger"
	"github.com/benvon/task-notifier/internal/logger"
	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/queue"
	"github.com/benvon/task-notifier/internal/settings"
	"github.com/benvon/task-notifier/internal/shell"
	"github.com/benvon/task-notifier/internal/speech"
	"github.com/benvon/task-notifier/internal/telemetry"
	"github.com/benvon/task-notifier/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	stateBuffer     = 16
	shutdownTimeout = 10 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.DebugMode || *debugFlag
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Error("notifier_failed", zap.Error(err))
		_ = logger.Sync(zapLogger)
		os.Exit(1)
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zapLogger.Info("starting_notifier",
		zap.String("version", version),
		zap.String("database_driver", cfg.DatabaseDriver),
		zap.String("speech_backend", cfg.SpeechBackend),
		zap.String("control_addr", cfg.ControlAddr),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracing := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, version, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracing = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	sink, err := speech.NewSink(cfg.SpeechBackend, cfg.SpeechVoice, zapLogger)
	if err != nil {
		return err
	}

	channel := shell.NewChannel(stateBuffer)
	connectStore(ctx, db, channel, zapLogger)

	publisher := connectPublisher(ctx, cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := publisher.Close(); err != nil {
			zapLogger.Warn("failed_to_close_event_publisher", zap.Error(err))
		}
	}()

	redisClient, err := connectRedis(ctx, cfg.RedisURL, zapLogger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	}

	scheduler := workers.NewScheduler(
		database.NewTaskRepository(db),
		db,
		sink,
		ledger.New(cfg.HistorySize),
		settings.NewStore(cfg.Settings),
		publisher,
		channel,
		zapLogger,
	)

	handlers := []shell.Handler{shell.ConsoleHandler(zapLogger)}
	if cfg.RabbitMQURL != "" {
		handlers = append(handlers, shell.PublishHandler(publisher, zapLogger))
	}
	renderer := shell.NewRenderer(channel, handlers...)
	go func() {
		_ = renderer.Start(ctx)
	}()

	var srv *http.Server
	if cfg.ControlAddr != "" {
		router, err := newRouter(routerDeps{
			engine:         scheduler,
			state:          channel,
			db:             db,
			publisher:      publisher,
			redis:          redisClient,
			allowedOrigins: cfg.ControlAllowedOrigins,
			rateLimit:      cfg.ControlRateLimit,
			tracing:        tracing,
			logger:         zapLogger,
		})
		if err != nil {
			return err
		}
		srv = &http.Server{
			Addr:              cfg.ControlAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}
		go func() {
			zapLogger.Info("control_api_starting", zap.String("addr", cfg.ControlAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLogger.Error("control_api_failed", zap.Error(err))
			}
		}()
	}

	err = scheduler.Start(ctx)
	zapLogger.Info("notifier_shutting_down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("control_api_forced_to_shutdown", zap.Error(err))
		}
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// connectStore checks the store once at startup. An unreachable store is not
// fatal: every cycle retries through the scheduler's reconnect.
func connectStore(ctx context.Context, db *database.DB, channel *shell.Channel, zapLogger *zap.Logger) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		zapLogger.Warn("store_unreachable_at_startup", zap.String("error", logger.SanitizeError(err)))
		channel.UpdateState(models.StateUpdate{Phase: models.PhaseIdle, Text: workers.TextStoreError})
		return
	}

	zapLogger.Info("connected_to_database", zap.String("driver", db.Driver()))
	if err := db.EnsureSchema(ctx); err != nil {
		zapLogger.Warn("failed_to_ensure_schema", zap.String("error", logger.SanitizeError(err)))
	}
	channel.UpdateState(models.StateUpdate{Phase: models.PhaseIdle, Text: workers.TextStoreReconnect})
}

// connectPublisher connects to RabbitMQ with exponential backoff. Events are
// optional, so after the last attempt the notifier runs with a no-op publisher.
func connectPublisher(ctx context.Context, amqpURL string, zapLogger *zap.Logger) queue.EventPublisher {
	if amqpURL == "" {
		return queue.NewNoopPublisher()
	}

	const maxRetries = 5
	const initialDelay = time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		publisher, err := queue.NewRabbitMQPublisher(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return publisher
		}
		lastErr = err

		delay := initialDelay * time.Duration(1<<uint(attempt))
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.String("error", logger.SanitizeError(err)),
			zap.Duration("retry_delay", delay),
		)
		select {
		case <-ctx.Done():
			return queue.NewNoopPublisher()
		case <-time.After(delay):
		}
	}

	zapLogger.Error("rabbitmq_unavailable_events_disabled",
		zap.Int("max_retries", maxRetries),
		zap.String("error", logger.SanitizeError(lastErr)),
	)
	return queue.NewNoopPublisher()
}

// connectRedis returns nil when no Redis is configured or it cannot be reached;
// the rate limiter then keeps its counters in memory
func connectRedis(ctx context.Context, redisURL string, zapLogger *zap.Logger) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &config.ConfigurationError{Key: "REDIS_URL", Reason: err.Error()}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zapLogger.Warn("redis_unreachable_using_memory_limiter", zap.String("error", logger.SanitizeError(err)))
		_ = client.Close()
		return nil, nil
	}

	zapLogger.Info("connected_to_redis")
	return client, nil
}
