package attendance

import (
	"embed"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/koinonia-app/koinonia/modules/attendance/infrastructure/cache"
	"github.com/koinonia-app/koinonia/modules/attendance/infrastructure/persistence"
	"github.com/koinonia-app/koinonia/modules/attendance/presentation/controllers"
	"github.com/koinonia-app/koinonia/modules/attendance/services"
	"github.com/koinonia-app/koinonia/pkg/application"
	"github.com/koinonia-app/koinonia/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

const MigrationsDir = "infrastructure/persistence/schema"

type ModuleOptions struct {
	Attendance  configuration.AttendanceOptions
	Redis       redis.UniversalClient
	Controllers controllers.ControllerOptions
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	resultCache, err := NewResultCache(m.options.Attendance, m.options.Redis)
	if err != nil {
		return err
	}
	app.RegisterServices(NewAnalyticsService(m.options.Attendance, resultCache, app.Logger()))
	app.RegisterControllers(
		controllers.NewAnalyticsAPIController(app, m.options.Controllers),
	)
	return nil
}

func (m *Module) Name() string {
	return "attendance"
}

// NewAnalyticsService wires the service to the Postgres stores.
func NewAnalyticsService(opts configuration.AttendanceOptions, resultCache services.ResultCache, logger *logrus.Logger) *services.AnalyticsService {
	return services.NewAnalyticsService(
		persistence.NewPersonRepository(),
		persistence.NewReportRepository(),
		persistence.NewRosterRepository(),
		resultCache,
		services.ServiceOptions{
			RecentWeeks: opts.RecentWeeks,
			Network: services.NetworkOptions{
				RecentWindow:   opts.RecentReportWindow,
				LatestLookback: opts.LatestLookback,
				FanOutLimit:    opts.FanOutLimit,
			},
		},
		logrus.NewEntry(logger),
	)
}

func NewResultCache(opts configuration.AttendanceOptions, client redis.UniversalClient) (services.ResultCache, error) {
	switch opts.CacheBackend {
	case "", configuration.CacheBackendNone:
		return services.NoopCache{}, nil
	case configuration.CacheBackendMemory:
		return cache.NewMemoryCache(opts.CacheTTL), nil
	case configuration.CacheBackendRedis:
		if client == nil {
			return nil, fmt.Errorf("attendance cache backend %q requires a redis client", opts.CacheBackend)
		}
		return cache.NewRedisCache(client, opts.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown attendance cache backend %q", opts.CacheBackend)
	}
}
