// internal/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	HTTP          HTTPConfig         `mapstructure:"http"`
	Backend       BackendConfig      `mapstructure:"backend"`
	Data          DataConfig         `mapstructure:"data"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Session       SessionConfig      `mapstructure:"session"`
	Favorites     FavoritesConfig    `mapstructure:"favorites"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Seed          SeedConfig         `mapstructure:"seed"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	PublicURL   string `mapstructure:"public_url"` // canonical site URL used in meta tags
}

type HTTPConfig struct {
	Port               int `mapstructure:"port"`
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
	ShutdownTimeout    int `mapstructure:"shutdown_timeout"` // seconds
}

// BackendConfig points at the managed backend (auth service + row API).
type BackendConfig struct {
	URL               string  `mapstructure:"url"`
	AnonKey           string  `mapstructure:"anon_key"`
	Timeout           int     `mapstructure:"timeout"` // milliseconds
	RetryMax          int     `mapstructure:"retry_max"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

func (b BackendConfig) TimeoutDuration() time.Duration {
	return time.Duration(b.Timeout) * time.Millisecond
}

const (
	DataSourceBackend  = "backend"
	DataSourcePostgres = "postgres"
)

type DataConfig struct {
	Source string `mapstructure:"source"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

const (
	FavoritesStoreRedis  = "redis"
	FavoritesStoreMemory = "memory"
)

type FavoritesConfig struct {
	Store string `mapstructure:"store"`
}

type NotificationConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Mailer    string `mapstructure:"mailer"` // "ses" or "log"
	Inbox     string `mapstructure:"inbox"`
	FromEmail string `mapstructure:"from_email"`
	AWSRegion string `mapstructure:"aws_region"`
	Workers   int    `mapstructure:"workers"`
	QueueSize int    `mapstructure:"queue_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SeedConfig drives cmd/seed. An empty DSN falls back to database.postgres.
type SeedConfig struct {
	DSN      string        `mapstructure:"dsn"`
	OwnerID  string        `mapstructure:"owner_id"`
	Interval time.Duration `mapstructure:"interval"`
	Once     bool          `mapstructure:"once"`
}

// RunsOnce reports whether the seeder should exit after a single pass: when
// asked to, or when no reseed interval is set.
func (s SeedConfig) RunsOnce() bool {
	return s.Once || s.Interval <= 0
}
