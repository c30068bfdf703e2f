package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parse runs the command with args and returns the config it handed to run.
func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	var cfg Config
	var got *Config
	cmd := NewCommand(&cfg, "test", func(_ context.Context, c *Config) error {
		got = c
		return nil
	})
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	return got, nil
}

func TestDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal("0.0.0.0:3000", cfg.Addr())
	assert.Equal("info", cfg.LogLevel)
	assert.Equal("json", cfg.LogFormat)
	assert.Empty(cfg.DatabaseURL)
	assert.Empty(cfg.AllowedOrigins)
	assert.Equal(10*time.Second, cfg.MatchTimeout)
	assert.Equal(20*time.Second, cfg.InactivityTimeout)
	assert.Equal(30*time.Second, cfg.SweepInterval)
	assert.Equal(2*time.Second, cfg.AutoStartDelay)
	assert.Equal(5*time.Second, cfg.MonitorDelay)
	assert.Equal(20, cfg.RateLimit)
}

func TestEnvironmentOverrides(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("ROOMS_LOG_LEVEL", "debug")
	t.Setenv("ROOMS_MATCH_TIMEOUT", "3s")
	t.Setenv("ROOMS_ALLOWED_ORIGINS", "a.example,*.b.example")

	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal("debug", cfg.LogLevel)
	assert.Equal(3*time.Second, cfg.MatchTimeout)
	assert.Equal([]string{"a.example", "*.b.example"}, cfg.AllowedOrigins)
}

func TestPortFallback(t *testing.T) {
	t.Run("PORT", func(t *testing.T) {
		t.Setenv("PORT", "8080")

		cfg, err := parse(t)
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
	})

	t.Run("ROOMS_PORT wins", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("ROOMS_PORT", "9090")

		cfg, err := parse(t)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Port)
	})
}

func TestFlagsBeatEnvironment(t *testing.T) {
	t.Setenv("ROOMS_PORT", "9090")
	t.Setenv("ROOMS_LOG_FORMAT", "console")

	cfg, err := parse(t, "--port", "4000", "--log-format=json")
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestBadEnvironmentValue(t *testing.T) {
	t.Setenv("ROOMS_RATE_LIMIT", "lots")

	_, err := parse(t)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--rate-limit")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:              3000,
			LogFormat:         "json",
			MatchTimeout:      time.Second,
			InactivityTimeout: time.Second,
			SweepInterval:     time.Second,
			AutoStartDelay:    time.Second,
			MonitorDelay:      time.Second,
			IdleTimeout:       time.Second,
			RateLimit:         1,
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"port too large", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"zero duration", func(c *Config) { c.SweepInterval = 0 }, "--sweep-interval"},
		{"rate limit", func(c *Config) { c.RateLimit = 0 }, "--rate-limit"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "unknown log format"},
		{"database scheme", func(c *Config) { c.DatabaseURL = "mysql://x" }, "--database-url"},
		{"postgresql scheme", func(c *Config) { c.DatabaseURL = "postgresql://x/db" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)

			err := cfg.Validate()

			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
