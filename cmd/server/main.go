package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/koinonia-app/koinonia/modules"
	"github.com/koinonia-app/koinonia/modules/attendance"
	"github.com/koinonia-app/koinonia/modules/attendance/presentation/controllers"
	"github.com/koinonia-app/koinonia/pkg/application"
	"github.com/koinonia-app/koinonia/pkg/configuration"
	"github.com/koinonia-app/koinonia/pkg/httpapi"
	"github.com/koinonia-app/koinonia/pkg/logging"
	"github.com/koinonia-app/koinonia/pkg/metrics"
	"github.com/koinonia-app/koinonia/pkg/middleware"
	"github.com/koinonia-app/koinonia/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	var redisClient redis.UniversalClient
	if conf.Attendance.CacheBackend == configuration.CacheBackendRedis ||
		(conf.RateLimit.Enabled && conf.RateLimit.Storage == "redis") {
		redisClient = redis.NewClient(&redis.Options{Addr: conf.RedisURL})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("attendance: redis unreachable at startup; cache reads will fall back to recompute")
		}
		defer redisClient.Close()
	}

	app := application.New(&application.ApplicationOptions{
		Pool:   pool,
		Logger: logger,
	})
	app.RegisterMiddleware(
		middleware.WithLogger(logger, conf.RequestIDHeader),
		middleware.Cors(conf.CORSAllowedOrigins, conf.TenantHeader, conf.ActorHeader, conf.RequestIDHeader),
		middleware.ProvidePool(pool),
	)
	if conf.RateLimit.Enabled {
		app.RegisterMiddleware(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.GlobalRPS,
			Store:             rateLimitStore(conf, redisClient, logger),
			KeyHeader:         conf.TenantHeader,
			RequestIDHeader:   conf.RequestIDHeader,
		}))
	}
	if err := modules.Load(app, modules.BuiltIn(&attendance.ModuleOptions{
		Attendance: conf.Attendance,
		Redis:      redisClient,
		Controllers: controllers.ControllerOptions{
			TenantHeader:    conf.TenantHeader,
			ActorHeader:     conf.ActorHeader,
			RequestIDHeader: conf.RequestIDHeader,
		},
	})...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	serverInstance := server.NewHTTPServer(app, notFound(conf.RequestIDHeader), methodNotAllowed(conf.RequestIDHeader))
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func rateLimitStore(conf *configuration.Configuration, client redis.UniversalClient, logger *logrus.Logger) limiter.Store {
	if conf.RateLimit.Storage == "redis" && client != nil {
		store, err := middleware.NewRedisStore(client)
		if err == nil {
			return store
		}
		logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
	}
	return middleware.NewMemoryStore()
}

func notFound(requestIDHeader string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := httpapi.EnsureRequestID(w, r, requestIDHeader)
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found", map[string]string{"request_id": requestID})
	})
}

func methodNotAllowed(requestIDHeader string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := httpapi.EnsureRequestID(w, r, requestIDHeader)
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", map[string]string{"request_id": requestID})
	})
}
