// internal/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml when
// present, and lets environment variables override any key (app.port ->
// APP_PORT).
func Load() (*Config, error) {
	loadEnvFile()
	return LoadFrom("./configs", "../../configs", ".")
}

// LoadWith is Load with a hook that runs before unmarshalling, used by
// commands to bind their flags (v.BindPFlag) over file and env values.
func LoadWith(bind func(v *viper.Viper) error, paths ...string) (*Config, error) {
	loadEnvFile()
	if len(paths) == 0 {
		paths = []string{"./configs", "../../configs", "."}
	}
	return load(bind, paths)
}

func LoadFrom(paths ...string) (*Config, error) {
	return load(nil, paths)
}

func load(bind func(v *viper.Viper) error, paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	expandEnvVars(v)

	if bind != nil {
		if err := bind(v); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pg-finder")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.public_url", "http://localhost:4002")
	v.SetDefault("http.port", 4002)
	v.SetDefault("http.rate_limit_per_minute", 100)
	v.SetDefault("http.shutdown_timeout", 15)
	// keys must be known to viper for AutomaticEnv to pick them up on Unmarshal
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.anon_key", "")
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("session.secure", false)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.inbox", "")
	v.SetDefault("notifications.from_email", "")
	v.SetDefault("notifications.aws_region", "")
	v.SetDefault("backend.timeout", 6000)
	v.SetDefault("backend.retry_max", 3)
	v.SetDefault("backend.requests_per_second", 20)
	v.SetDefault("data.source", DataSourceBackend)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.max_connections", 10)
	v.SetDefault("database.postgres.max_idle", 5)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.cookie_name", "pgf_session")
	v.SetDefault("favorites.store", FavoritesStoreRedis)
	v.SetDefault("notifications.mailer", "log")
	v.SetDefault("notifications.workers", 2)
	v.SetDefault("notifications.queue_size", 256)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("seed.dsn", "")
	v.SetDefault("seed.owner_id", "")
	v.SetDefault("seed.interval", time.Duration(0))
	v.SetDefault("seed.once", false)
	// PG_DSN is the name the deploy scripts already export
	_ = v.BindEnv("seed.dsn", "SEED_DSN", "PG_DSN")
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Backend.URL == "" {
		return errors.New("backend.url is required")
	}
	if cfg.Backend.AnonKey == "" {
		return errors.New("backend.anon_key is required")
	}
	switch cfg.Data.Source {
	case DataSourceBackend, DataSourcePostgres:
	default:
		return fmt.Errorf("data.source must be %q or %q, got %q", DataSourceBackend, DataSourcePostgres, cfg.Data.Source)
	}
	switch cfg.Favorites.Store {
	case FavoritesStoreRedis, FavoritesStoreMemory:
	default:
		return fmt.Errorf("favorites.store must be %q or %q, got %q", FavoritesStoreRedis, FavoritesStoreMemory, cfg.Favorites.Store)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Inbox == "" {
		return errors.New("notifications.inbox is required when notifications are enabled")
	}
	if cfg.Notifications.Mailer == "ses" && cfg.Notifications.AWSRegion == "" {
		return errors.New("notifications.aws_region is required for the ses mailer")
	}
	if cfg.HTTP.Port <= 0 {
		return fmt.Errorf("http.port must be positive, got %d", cfg.HTTP.Port)
	}
	return nil
}
