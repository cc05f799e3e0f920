package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/koinonia-app/koinonia/pkg/httpapi"
)

const rateLimitPrefix = "koinonia:ratelimit"

type RateLimitConfig struct {
	RequestsPerPeriod int64
	Period            time.Duration
	Store             limiter.Store
	// KeyHeader buckets requests by this header (the tenant); the remote address is used when it is empty.
	KeyHeader       string
	RequestIDHeader string
}

func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		CleanUpInterval: time.Minute,
	})
}

func NewRedisStore(client redis.UniversalClient) (limiter.Store, error) {
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: rateLimitPrefix,
	})
}

// RateLimit rejects requests above the configured rate with a 429 error envelope.
func RateLimit(cfg RateLimitConfig) mux.MiddlewareFunc {
	period := cfg.Period
	if period <= 0 {
		period = time.Second
	}
	instance := limiter.New(cfg.Store, limiter.Rate{
		Period: period,
		Limit:  cfg.RequestsPerPeriod,
	})
	mw := mhttp.NewMiddleware(instance,
		mhttp.WithKeyGetter(func(r *http.Request) string {
			if cfg.KeyHeader != "" {
				if v := strings.TrimSpace(r.Header.Get(cfg.KeyHeader)); v != "" {
					return v
				}
			}
			return r.RemoteAddr
		}),
		mhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			requestID := httpapi.EnsureRequestID(w, r, cfg.RequestIDHeader)
			_ = httpapi.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", map[string]string{
				"request_id": requestID,
			})
		}),
	)
	return mw.Handler
}
