package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "STORE_DRIVER", "JWT_SECRET", "JWT_TTL", "REDIS_ENABLED", "GIN_MODE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Redis.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:    "development",
			Server: ServerConfig{Port: "8080", GinMode: "debug"},
			Store:  StoreConfig{Driver: StoreMemory},
			Auth:   AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
		}
	}
	require.NoError(t, valid().Validate())

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store.Driver = "cassandra" }},
		{"no port", func(c *Config) { c.Server.Port = "" }},
		{"bad gin mode", func(c *Config) { c.Server.GinMode = "verbose" }},
		{"no secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"default secret in production", func(c *Config) {
			c.Env = "production"
			c.Auth.JWTSecret = defaultJWTSecret
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
