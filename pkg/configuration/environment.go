package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/koinonia-app/koinonia/pkg/logging"
)

const Production = "production"

const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"koinonia"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type LogOptions struct {
	Level string `env:"LOG_LEVEL" envDefault:"error"`
	Path  string `env:"LOG_PATH" envDefault:"./logs/app.log"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"koinonia"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	GlobalRPS int64  `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"100"`
}

// AttendanceOptions tunes the attendance analytics engine.
type AttendanceOptions struct {
	RecentWeeks        int           `env:"ATTENDANCE_RECENT_WEEKS" envDefault:"12"`
	RecentReportWindow time.Duration `env:"ATTENDANCE_RECENT_REPORT_WINDOW" envDefault:"168h"`
	LatestLookback     time.Duration `env:"ATTENDANCE_LATEST_LOOKBACK" envDefault:"2160h"`
	FanOutLimit        int           `env:"ATTENDANCE_FANOUT_LIMIT" envDefault:"8"`
	CacheBackend       string        `env:"ATTENDANCE_CACHE_BACKEND" envDefault:"none"` // none, memory or redis
	CacheTTL           time.Duration `env:"ATTENDANCE_CACHE_TTL" envDefault:"5m"`
}

// Validate checks the attendance configuration for errors
func (a *AttendanceOptions) Validate() error {
	if a.RecentWeeks <= 0 {
		return fmt.Errorf("ATTENDANCE_RECENT_WEEKS must be positive, got %d", a.RecentWeeks)
	}
	if a.RecentReportWindow <= 0 {
		return fmt.Errorf("ATTENDANCE_RECENT_REPORT_WINDOW must be positive, got %s", a.RecentReportWindow)
	}
	if a.LatestLookback < a.RecentReportWindow {
		return fmt.Errorf("ATTENDANCE_LATEST_LOOKBACK (%s) must cover ATTENDANCE_RECENT_REPORT_WINDOW (%s)", a.LatestLookback, a.RecentReportWindow)
	}
	if a.FanOutLimit <= 0 || a.FanOutLimit > 256 {
		return fmt.Errorf("ATTENDANCE_FANOUT_LIMIT must be in 1..256, got %d", a.FanOutLimit)
	}
	backend := strings.ToLower(strings.TrimSpace(a.CacheBackend))
	if backend == "" {
		backend = CacheBackendNone
	}
	switch backend {
	case CacheBackendNone, CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("invalid ATTENDANCE_CACHE_BACKEND=%q (expected none|memory|redis)", a.CacheBackend)
	}
	a.CacheBackend = backend
	if backend != CacheBackendNone && a.CacheTTL <= 0 {
		return fmt.Errorf("ATTENDANCE_CACHE_TTL must be positive when caching is enabled")
	}
	return nil
}

type Configuration struct {
	Database      DatabaseOptions
	Log           LogOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	Attendance    AttendanceOptions
	RateLimit     RateLimitOptions

	RedisURL         string `env:"REDIS_URL" envDefault:"localhost:6379"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	// Header carrying the request id; a uuidv4 is generated when it is absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Headers set by the upstream auth gateway.
	TenantHeader string `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`
	ActorHeader  string `env:"ACTOR_HEADER" envDefault:"X-Actor-ID"`
	// Origins allowed to call the API from a browser.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.Log.Level {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Parse reads the environment into a fresh Configuration without touching log files.
func Parse() (*Configuration, error) {
	c := &Configuration{}
	if err := c.parse(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) parse() error {
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.Attendance.Validate(); err != nil {
		return fmt.Errorf("attendance configuration error: %w", err)
	}
	if c.RateLimit.Enabled && c.RateLimit.GlobalRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_GLOBAL_RPS must be positive when rate limiting is enabled")
	}
	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := c.parse(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Log.Path)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
