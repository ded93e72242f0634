package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadFrom_DefaultsAndFile(t *testing.T) {
	dir := writeConfig(t, `
backend:
  url: https://backend.example.com
  anon_key: anon-123
data:
  source: postgres
database:
  postgres:
    host: db
    database: pgfinder
    user: app
    password: secret
`)
	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "pg-finder", cfg.App.Name)
	assert.Equal(t, 4002, cfg.HTTP.Port)
	assert.Equal(t, DataSourcePostgres, cfg.Data.Source)
	assert.Equal(t, 6*time.Second, cfg.Backend.TimeoutDuration())
	assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, FavoritesStoreRedis, cfg.Favorites.Store)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=pgfinder sslmode=disable", cfg.Database.Postgres.GetDSN())
}

func TestLoadFrom_EnvOverridesAndExpansion(t *testing.T) {
	dir := writeConfig(t, `
backend:
  url: https://backend.example.com
  anon_key: ${TEST_PGF_ANON_KEY}
`)
	t.Setenv("TEST_PGF_ANON_KEY", "from-env")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Backend.AnonKey)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoadFrom_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing backend url",
			body: "backend:\n  anon_key: k\n",
			want: "backend.url is required",
		},
		{
			name: "unknown data source",
			body: "backend:\n  url: u\n  anon_key: k\ndata:\n  source: mongo\n",
			want: "data.source",
		},
		{
			name: "notifications without inbox",
			body: "backend:\n  url: u\n  anon_key: k\nnotifications:\n  enabled: true\n",
			want: "notifications.inbox",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadWith_SeedSection(t *testing.T) {
	dir := writeConfig(t, `
backend:
  url: u
  anon_key: k
seed:
  owner_id: from-file
  interval: 6h
`)
	t.Setenv("PG_DSN", "postgres://seed@db/pgfinder")
	t.Setenv("SEED_ONCE", "true")

	cfg, err := LoadWith(func(v *viper.Viper) error {
		v.Set("seed.owner_id", "from-flag")
		return nil
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://seed@db/pgfinder", cfg.Seed.DSN)
	assert.Equal(t, "from-flag", cfg.Seed.OwnerID)
	assert.Equal(t, 6*time.Hour, cfg.Seed.Interval)
	assert.True(t, cfg.Seed.Once)
}

func TestLoadWith_BindError(t *testing.T) {
	dir := writeConfig(t, "backend:\n  url: u\n  anon_key: k\n")
	_, err := LoadWith(func(*viper.Viper) error { return assert.AnError }, dir)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSeedConfig_RunsOnce(t *testing.T) {
	tests := []struct {
		cfg  SeedConfig
		want bool
	}{
		{SeedConfig{}, true},
		{SeedConfig{Interval: time.Hour}, false},
		{SeedConfig{Interval: time.Hour, Once: true}, true},
		{SeedConfig{Interval: -time.Second}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cfg.RunsOnce(), "%+v", tt.cfg)
	}
}
