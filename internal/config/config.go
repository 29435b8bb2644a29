package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Task     TaskConfig     `mapstructure:"task"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeoutSeconds bounds graceful shutdown of HTTP and workers.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig holds the settings used to verify bearer tokens issued by the
// identity provider.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	Issuer    string `mapstructure:"issuer"`
}

// RedisConfig configures the distributed per-unit write lock. An empty Addr
// selects the in-process lock, which is only correct for a single replica.
type RedisConfig struct {
	Addr           string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db" validate:"gte=0"`
	LockTTLSeconds int    `mapstructure:"lock_ttl_seconds" validate:"gte=1"`
}

// SuggestConfig overrides the suggestion engine's tuning numbers. Zero keeps
// the engine default.
type SuggestConfig struct {
	KeywordWeight       int `mapstructure:"keyword_weight" validate:"gte=0"`
	CompetencyThreshold int `mapstructure:"competency_threshold" validate:"gte=0"`
	TopN                int `mapstructure:"top_n" validate:"gte=0"`
}

// CatalogConfig points at an optional directory of catalog YAML files that
// replace the compiled-in ones.
type CatalogConfig struct {
	Dir string `mapstructure:"dir"`
}

// TaskConfig sizes the background task runner.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize           int `mapstructure:"queue_size" validate:"gte=1"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gte=1"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string  `mapstructure:"service_name" validate:"required"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}
