package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "REVSYNC"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Rakuten   RakutenConfig
	Lark      LarkConfig
	Pivot     PivotConfig
	Sync      SyncConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Telemetry TelemetryConfig
	Scheduler SchedulerConfig
	HTTP      HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string `validate:"oneof=development testing staging production"`
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
	Output string // stdout, stderr, or file path
}

// RakutenConfig holds the RMS order API settings
type RakutenConfig struct {
	ServiceSecret     string
	LicenseKey        string
	APIBaseURL        string `validate:"url"`
	TimeZone          string
	TimeoutSeconds    int     `validate:"gt=0"`
	RequestsPerSecond float64 `validate:"gt=0"`
	DetailVersion     int     `validate:"gt=0"`
}

// LarkConfig holds the Lark open platform settings
type LarkConfig struct {
	AppID          string
	AppSecret      string
	APIBaseURL     string `validate:"url"`
	TimeoutSeconds int    `validate:"gt=0"`
	NotifyOpenID   string // empty disables run notifications
}

// PivotConfig names the default revenue pivot table
type PivotConfig struct {
	AppToken     string
	TableID      string
	KeyField     string
	ColumnScheme string `validate:"oneof=day month_day"`
}

// SyncConfig holds aggregation and run settings
type SyncConfig struct {
	PageSize        int `validate:"gte=1,lte=1000"`
	DetailBatchSize int `validate:"gte=1,lte=100"`
	SortSkus        bool
	NormalizeWidth  bool
	LockTTL         time.Duration `validate:"gt=0"`
}

// RedisConfig holds Redis connection settings for the run lock
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	// KeyPrefix is prepended to every lock key
	KeyPrefix string
	// AllowInMemoryFallback uses a process-local lock when Redis is unreachable
	AllowInMemoryFallback bool
}

// Addr returns the host:port address of the Redis server
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds run history storage settings
type DatabaseConfig struct {
	Enabled         bool
	Driver          string `validate:"oneof=sqlite postgres"`
	SQLitePath      string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry tracing
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool // Export zap logs through the OTLP log bridge
	// Database tracing options
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
	// Continuous profiling
	ProfilingEnabled bool
	ProfilingServer  string
	ProfileTypes     []string
}

// SchedulerConfig holds the daily trigger configuration
type SchedulerConfig struct {
	Enabled       bool
	DailyHour     int           `validate:"gte=0,lte=23"`
	DailyMinute   int           `validate:"gte=0,lte=59"`
	CheckInterval time.Duration `validate:"gt=0"`
	RetryAttempts int           `validate:"gte=0"`
	RetryDelay    time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	MaxBodyBytes     int64
	RateLimitBurst   int
	RateLimitWindow  time.Duration
}

// Load loads configuration from config.toml and environment variables
// Priority (highest to lowest):
// 1. Environment variables with REVSYNC_ prefix (e.g., REVSYNC_LARK_APP_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit file path. An empty path
// searches for config.toml in the working directory and /etc/revsync.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/revsync")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Rakuten: RakutenConfig{
			ServiceSecret:     v.GetString("rakuten.service_secret"),
			LicenseKey:        v.GetString("rakuten.license_key"),
			APIBaseURL:        v.GetString("rakuten.api_base_url"),
			TimeZone:          v.GetString("rakuten.timezone"),
			TimeoutSeconds:    v.GetInt("rakuten.timeout_seconds"),
			RequestsPerSecond: v.GetFloat64("rakuten.requests_per_second"),
			DetailVersion:     v.GetInt("rakuten.detail_version"),
		},
		Lark: LarkConfig{
			AppID:          v.GetString("lark.app_id"),
			AppSecret:      v.GetString("lark.app_secret"),
			APIBaseURL:     v.GetString("lark.api_base_url"),
			TimeoutSeconds: v.GetInt("lark.timeout_seconds"),
			NotifyOpenID:   v.GetString("lark.notify_open_id"),
		},
		Pivot: PivotConfig{
			AppToken:     v.GetString("pivot.app_token"),
			TableID:      v.GetString("pivot.table_id"),
			KeyField:     v.GetString("pivot.key_field"),
			ColumnScheme: v.GetString("pivot.column_scheme"),
		},
		Sync: SyncConfig{
			PageSize:        v.GetInt("sync.page_size"),
			DetailBatchSize: v.GetInt("sync.detail_batch_size"),
			SortSkus:        v.GetBool("sync.sort_skus"),
			NormalizeWidth:  v.GetBool("sync.normalize_width"),
			LockTTL:         v.GetDuration("sync.lock_ttl"),
		},
		Redis: RedisConfig{
			Enabled:               v.GetBool("redis.enabled"),
			Host:                  v.GetString("redis.host"),
			Port:                  v.GetInt("redis.port"),
			Password:              v.GetString("redis.password"),
			DB:                    v.GetInt("redis.db"),
			KeyPrefix:             v.GetString("redis.key_prefix"),
			AllowInMemoryFallback: v.GetBool("redis.allow_in_memory_fallback"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("database.enabled"),
			Driver:          v.GetString("database.driver"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingServer:   v.GetString("telemetry.profiling_server"),
			ProfileTypes:      v.GetStringSlice("telemetry.profile_types"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("scheduler.enabled"),
			DailyHour:     v.GetInt("scheduler.daily_hour"),
			DailyMinute:   v.GetInt("scheduler.daily_minute"),
			CheckInterval: v.GetDuration("scheduler.check_interval"),
			RetryAttempts: v.GetInt("scheduler.retry_attempts"),
			RetryDelay:    v.GetDuration("scheduler.retry_delay"),
		},
		HTTP: HTTPConfig{
			Port:             v.GetString("http.port"),
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			MaxBodyBytes:     v.GetInt64("http.max_body_bytes"),
			RateLimitBurst:   v.GetInt("http.rate_limit_burst"),
			RateLimitWindow:  v.GetDuration("http.rate_limit_window"),
		},
	}

	// scheduler.daily_hour may legitimately be 0, so only default it when unset
	if !v.IsSet("scheduler.daily_hour") {
		cfg.Scheduler.DailyHour = defaultDailyHour
	}
	if !v.IsSet("sync.sort_skus") {
		cfg.Sync.SortSkus = true
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

const defaultDailyHour = 6

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "revsync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Rakuten.APIBaseURL == "" {
		cfg.Rakuten.APIBaseURL = "https://api.rms.rakuten.co.jp/es/2.0"
	}
	if cfg.Rakuten.TimeZone == "" {
		cfg.Rakuten.TimeZone = "Asia/Tokyo"
	}
	if cfg.Rakuten.TimeoutSeconds == 0 {
		cfg.Rakuten.TimeoutSeconds = 30
	}
	if cfg.Rakuten.RequestsPerSecond == 0 {
		cfg.Rakuten.RequestsPerSecond = 1
	}
	if cfg.Rakuten.DetailVersion == 0 {
		cfg.Rakuten.DetailVersion = 7
	}
	if cfg.Lark.APIBaseURL == "" {
		cfg.Lark.APIBaseURL = "https://open.larksuite.com/open-apis"
	}
	if cfg.Lark.TimeoutSeconds == 0 {
		cfg.Lark.TimeoutSeconds = 10
	}
	if cfg.Pivot.KeyField == "" {
		cfg.Pivot.KeyField = "商品名"
	}
	if cfg.Pivot.ColumnScheme == "" {
		cfg.Pivot.ColumnScheme = "day"
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 1000
	}
	if cfg.Sync.DetailBatchSize == 0 {
		cfg.Sync.DetailBatchSize = 100
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 30 * time.Minute
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "revsync:"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "revsync.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "revsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 5
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Scheduler.CheckInterval == 0 {
		cfg.Scheduler.CheckInterval = time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = 5 * time.Minute
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// A daily sync can take minutes against a large order set.
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 10 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 64 << 10
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 30
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
}

var validate = validator.New()

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := time.LoadLocation(c.Rakuten.TimeZone); err != nil {
		return fmt.Errorf("rakuten.timezone %q is not a valid location: %w", c.Rakuten.TimeZone, err)
	}

	if c.Database.Enabled && c.Database.Driver == DriverPostgres {
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be positive")
		}
		if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
				c.Database.MaxIdleConns, c.Database.MaxOpenConns)
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServer == "" {
		return fmt.Errorf("telemetry.profiling_server is required when profiling is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.Enabled && c.Database.Driver == DriverPostgres && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// HasPivotTarget reports whether a default pivot table is configured
func (p PivotConfig) HasPivotTarget() bool {
	return p.AppToken != "" && p.TableID != ""
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
