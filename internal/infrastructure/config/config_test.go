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

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "inventory-core", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "storefront", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Inventory.LowStockThreshold)
		assert.Equal(t, 4, cfg.Inventory.BulkWorkers)
		assert.Equal(t, 50, cfg.Inventory.BulkBatchSize)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.Equal(t, "inventory-core", cfg.Telemetry.ServiceName)
		assert.False(t, cfg.Swagger.Enabled)
	})

	t.Run("loads values from environment variables with INV prefix", func(t *testing.T) {
		t.Setenv("INV_APP_NAME", "test-app")
		t.Setenv("INV_DATABASE_HOST", "testdb.local")
		t.Setenv("INV_DATABASE_PORT", "5433")
		t.Setenv("INV_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("INV_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("INV_INVENTORY_LOW_STOCK_THRESHOLD", "3")
		t.Setenv("INV_INVENTORY_BULK_WORKERS", "8")
		t.Setenv("INV_SCHEDULER_SYNC_INTERVAL", "5m")
		t.Setenv("INV_SWAGGER_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 3, cfg.Inventory.LowStockThreshold)
		assert.Equal(t, 8, cfg.Inventory.BulkWorkers)
		assert.Equal(t, 5*time.Minute, cfg.Scheduler.SyncInterval)
		assert.True(t, cfg.Swagger.Enabled)
	})

	t.Run("fails when idle conns exceed open conns", func(t *testing.T) {
		t.Setenv("INV_DATABASE_MAX_OPEN_CONNS", "5")
		t.Setenv("INV_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})
}

func TestFromViper_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
name = "handmade-inventory"

[inventory]
low_stock_threshold = 7
bulk_batch_size = 20

[redis]
enabled = true
host = "cache.internal"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "handmade-inventory", cfg.App.Name)
	assert.Equal(t, 7, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, 20, cfg.Inventory.BulkBatchSize)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr())
}

func TestValidate_Production(t *testing.T) {
	base := func() *Config {
		cfg := &Config{App: AppConfig{Env: "production"}}
		applyDefaults(cfg)
		cfg.JWT.Secret = "a-very-long-production-secret-of-32+chars"
		cfg.JWT.Required = true
		cfg.Database.Password = "s3cret"
		cfg.Database.SSLMode = "require"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"default secret", func(c *Config) { c.JWT.Secret = defaultJWTSecret }, "jwt.secret"},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "32 characters"},
		{"jwt optional", func(c *Config) { c.JWT.Required = false }, "jwt.required"},
		{"no db password", func(c *Config) { c.Database.Password = "" }, "database.password"},
		{"ssl disabled", func(c *Config) { c.Database.SSLMode = "disable" }, "sslmode"},
		{"wildcard cors", func(c *Config) { c.HTTP.CORSAllowOrigins = []string{"*"} }, "cors_allow_origins"},
		{"full sql", func(c *Config) { c.Telemetry.DBLogFullSQL = true }, "db_log_full_sql"},
		{"open swagger", func(c *Config) { c.Swagger.Enabled = true }, "swagger endpoint"},
		{"swagger behind auth", func(c *Config) { c.Swagger.Enabled = true; c.Swagger.RequireAuth = true }, ""},
		{"swagger behind allow list", func(c *Config) {
			c.Swagger.Enabled = true
			c.Swagger.AllowedIPs = []string{"10.0.0.0/8"}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "shop",
		Password: "p@ss#word",
		DBName:   "storefront",
		SSLMode:  "disable",
	}
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "p%40ss%23word")
	assert.Contains(t, dsn, "db:5432/storefront")
	assert.Contains(t, dsn, "sslmode=disable")
}
