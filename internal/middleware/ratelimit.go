package middleware

import (
	"fmt"
	"net/http"

	"github.com/benvon/task-notifier/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	// DefaultRate is used when no rate is configured
	DefaultRate = "5-S"

	rateLimitPrefix = "task_notifier_limiter"
)

// RateLimit limits requests per client using ulule/limiter. Counters live in
// Redis when a client is given so several notifier instances share them,
// otherwise in process memory.
func RateLimit(rateStr string, redisClient *redis.Client, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = DefaultRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rateStr, err)
	}

	var store limiter.Store
	backend := "memory"
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
		backend = "redis"
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix, CleanUpInterval: limiter.DefaultCleanUpInterval})
	}

	logger.Info("rate_limit_configured",
		zap.String("rate", rateStr),
		zap.String("store", backend),
	)

	instance := limiter.New(store, rate)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("rate_limit_store_error", zap.Error(err))
			respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "rate limiter unavailable", logger)
		}),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded", logger)
		}),
	)
	return mw.Handler, nil
}
