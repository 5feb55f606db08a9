// Package config loads murmur's configuration from defaults, an optional YAML file,
// MURMUR_* environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load. A double underscore
// separates nested keys, e.g. MURMUR_SESSION__TTL.
const EnvPrefix = "MURMUR_"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the application configuration.
type Config struct {
	Port          int           `koanf:"port"`
	DatabasePath  string        `koanf:"database_path"`
	Env           string        `koanf:"env"`
	LogLevel      string        `koanf:"log_level"`
	StatsInterval time.Duration `koanf:"stats_interval"`
	Session       SessionConfig `koanf:"session"`
	Cookie        CookieConfig  `koanf:"cookie"`
	CSRF          CSRFConfig    `koanf:"csrf"`
	CORS          CORSConfig    `koanf:"cors"`
	Hash          HashConfig    `koanf:"hash"`
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	Renew         bool          `koanf:"renew"`
	SweepSchedule string        `koanf:"sweep_schedule"`
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Secure bool `koanf:"secure"`
}

// CSRFConfig controls CSRF token signing. An empty secret makes the server generate
// one at startup.
type CSRFConfig struct {
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
}

// CORSConfig lists the origins allowed to call the JSON API.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// HashConfig bounds concurrent password hashing. Zero means GOMAXPROCS.
type HashConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// defaults are loaded before any other source.
var defaults = map[string]any{
	"port":                   8080,
	"database_path":          "./murmur.db",
	"env":                    EnvDevelopment,
	"log_level":              "info",
	"stats_interval":         time.Minute,
	"session.ttl":            30 * 24 * time.Hour,
	"session.renew":          false,
	"session.sweep_schedule": "@every 1h",
	"cookie.secure":          false,
	"csrf.secret":            "",
	"csrf.ttl":               12 * time.Hour,
	"cors.allowed_origins":   []string{},
	"hash.concurrency":       0,
}

func newKoanf() (*koanf.Koanf, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return k, nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	k, err := newKoanf()
	if err == nil {
		var cfg *Config
		if cfg, err = unmarshal(k); err == nil {
			return cfg
		}
	}
	// Defaults are static.
	panic(err)
}

// Load loads configuration. configFile and flags are optional.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	k, err := newKoanf()
	if err != nil {
		return nil, err
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		// Flags use dashes; unchanged flags never override the sources above.
		err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.StatsInterval <= 0 {
		errs = append(errs, errors.New("stats_interval must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if _, err := cron.ParseStandard(c.Session.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("session.sweep_schedule: %w", err))
	}
	if c.CSRF.Secret != "" && len(c.CSRF.Secret) < 32 {
		errs = append(errs, errors.New("csrf.secret must be at least 32 bytes"))
	}
	if c.CSRF.TTL <= 0 {
		errs = append(errs, errors.New("csrf.ttl must be positive"))
	}
	if c.Hash.Concurrency < 0 {
		errs = append(errs, errors.New("hash.concurrency must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
