// Package config holds the server configuration and its command line.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ROOMS_LOG_LEVEL.
const EnvPrefix = "ROOMS"

type Config struct {
	Bind           string
	Port           int
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	Version        bool

	MatchTimeout      time.Duration
	InactivityTimeout time.Duration
	SweepInterval     time.Duration
	AutoStartDelay    time.Duration
	MonitorDelay      time.Duration
	IdleTimeout       time.Duration
	RateLimit         int
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"match-timeout", c.MatchTimeout},
		{"inactivity-timeout", c.InactivityTimeout},
		{"sweep-interval", c.SweepInterval},
		{"auto-start-delay", c.AutoStartDelay},
		{"monitor-delay", c.MonitorDelay},
		{"idle-timeout", c.IdleTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("--%s must be positive: %s", d.name, d.value)
		}
	}

	if c.RateLimit < 1 {
		return fmt.Errorf("--rate-limit must be at least 1: %d", c.RateLimit)
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q (want json or console)", c.LogFormat)
	}

	if c.DatabaseURL != "" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return errors.New("--database-url must be a postgres:// or postgresql:// URL")
	}

	return nil
}

// NewCommand wires flags and ROOMS_* environment variables into cfg and
// calls run once they validate. PORT is honoured when ROOMS_PORT is unset.
func NewCommand(cfg *Config, version string, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var envErrs []error
	cmd := &cobra.Command{
		Use:     "gameroom-server",
		Short:   "Real-time rooms and matchmaking for small multiplayer games.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.Join(envErrs...); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: ROOMS_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 3000, "port to listen on (env: ROOMS_PORT, PORT)")
	fs.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", nil, "origin host patterns allowed to connect, e.g. *.example.com; empty allows any (env: ROOMS_ALLOWED_ORIGINS)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "minimum log level (env: ROOMS_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "json", "log output format, json or console (env: ROOMS_LOG_FORMAT)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres URL for match history, empty keeps it in memory (env: ROOMS_DATABASE_URL)")
	fs.DurationVar(&cfg.MatchTimeout, "match-timeout", 10*time.Second, "time a player waits for an opponent (env: ROOMS_MATCH_TIMEOUT)")
	fs.DurationVar(&cfg.InactivityTimeout, "inactivity-timeout", 20*time.Second, "idle time before a racer is removed (env: ROOMS_INACTIVITY_TIMEOUT)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", 30*time.Second, "interval between inactivity sweeps (env: ROOMS_SWEEP_INTERVAL)")
	fs.DurationVar(&cfg.AutoStartDelay, "auto-start-delay", 2*time.Second, "delay before a full classroom starts (env: ROOMS_AUTO_START_DELAY)")
	fs.DurationVar(&cfg.MonitorDelay, "monitor-delay", 5*time.Second, "delay before the first monitor is chosen (env: ROOMS_MONITOR_DELAY)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", 5*time.Minute, "time before a silent connection is closed (env: ROOMS_IDLE_TIMEOUT)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", 20, "messages per second allowed per connection (env: ROOMS_RATE_LIMIT)")
	fs.BoolVarP(&cfg.Version, "version", "V", false, "display version and exit (env: ROOMS_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if f.Name == "port" {
			_ = v.BindEnv(f.Name, EnvPrefix+"_PORT", "PORT")
		} else {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, envValue(v.Get(f.Name))); err != nil {
				envErrs = append(envErrs, fmt.Errorf("environment value for --%s: %w", f.Name, err))
			}
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("gameroom-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func envValue(v any) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, ",")
	}
	return fmt.Sprintf("%v", v)
}
