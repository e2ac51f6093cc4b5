package main

import (
	"context"
	"net/http"

	"github.com/benvon/task-notifier/internal/database"
	"github.com/benvon/task-notifier/internal/handlers"
	"github.com/benvon/task-notifier/internal/middleware"
	"github.com/benvon/task-notifier/internal/queue"
	"github.com/benvon/task-notifier/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type routerDeps struct {
	engine         handlers.Engine
	state          handlers.StateSource
	db             database.ConnectionInterface
	publisher      queue.EventPublisher
	redis          *redis.Client
	allowedOrigins string
	rateLimit      string
	tracing        bool
	logger         *zap.Logger
}

// newRouter builds the control API. gorilla/mux runs middleware in
// registration order, so the first registered is the outermost.
func newRouter(deps routerDeps) (*mux.Router, error) {
	searchLimit, err := middleware.RateLimit(deps.rateLimit, deps.redis, deps.logger)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	if deps.tracing {
		r.Use(telemetry.HTTPMiddleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.ParseOrigins(deps.allowedOrigins), deps.logger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(deps.logger))
	r.Use(middleware.Logging(deps.logger))

	health := handlers.NewHealthChecker(deps.db.PingContext)
	var rabbitCheck handlers.CheckFunc
	if _, ok := deps.publisher.(*queue.RabbitMQPublisher); ok {
		rabbitCheck = deps.publisher.HealthCheck
	}
	health.AddCheck("rabbitmq", rabbitCheck)
	var redisCheck handlers.CheckFunc
	if deps.redis != nil {
		redisCheck = func(ctx context.Context) error { return deps.redis.Ping(ctx).Err() }
	}
	health.AddCheck("redis", redisCheck)
	r.HandleFunc("/healthz", health.HealthCheck).Methods("GET")

	handlers.NewOpenAPIHandler().RegisterRoutes(r)

	api := r.PathPrefix("/api/v1").Subrouter()
	handlers.NewNotifierHandler(deps.engine, deps.state, deps.logger).RegisterRoutes(api, searchLimit)

	// Preflight requests are answered by the CORS middleware
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
