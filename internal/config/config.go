package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the catalog service.
// Values come from the environment, falling back to an optional .env file.
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Metrics   MetricsConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

// CatalogConfig selects the catalog source. DSN takes precedence over File.
type CatalogConfig struct {
	File string
	DSN  string
}

type MetricsConfig struct {
	Enabled bool
	Secret  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	PerMinute int // 0 disables limiting
	// TrustProxy keys clients by the first X-Forwarded-For hop. Enable only
	// behind a proxy that sets the header itself.
	TrustProxy bool
}

const minMetricsSecretLen = 32

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Load reads configuration from the environment. envFiles default to
// ".env"; missing files are skipped and never override real variables.
func Load(envFiles ...string) (*Config, error) {
	env, err := newLookup(envFiles)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            env.str("PORT", "8082"),
			Host:            env.str("HOST", "0.0.0.0"),
			ShutdownTimeout: env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Catalog: CatalogConfig{
			File: env.str("CATALOG_FILE", ""),
			DSN:  env.str("CATALOG_DSN", ""),
		},
		Metrics: MetricsConfig{
			Enabled: env.boolean("METRICS_ENABLED", false),
			Secret:  env.str("METRICS_SECRET", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: env.slice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		RateLimit: RateLimitConfig{
			PerMinute:  env.integer("RATE_LIMIT_PER_MIN", 600),
			TrustProxy: env.boolean("RATE_LIMIT_TRUST_PROXY", false),
		},
		LogLevel: env.str("LOG_LEVEL", "info"),
	}

	if len(env.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(env.errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ToolConfig is the subset of settings that offline tooling reads.
type ToolConfig struct {
	Catalog       CatalogConfig
	MetricsSecret string
}

// LoadTool reads only the catalog source and metrics secret, so server
// settings in the same environment cannot make it fail.
func LoadTool(envFiles ...string) (*ToolConfig, error) {
	env, err := newLookup(envFiles)
	if err != nil {
		return nil, err
	}

	return &ToolConfig{
		Catalog: CatalogConfig{
			File: env.str("CATALOG_FILE", ""),
			DSN:  env.str("CATALOG_DSN", ""),
		},
		MetricsSecret: env.str("METRICS_SECRET", ""),
	}, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT is required")
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("PORT must be 1-65535, got %q", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Metrics.Enabled && len(c.Metrics.Secret) < minMetricsSecretLen {
		return fmt.Errorf("METRICS_SECRET must be at least %d chars when METRICS_ENABLED", minMetricsSecretLen)
	}

	if c.RateLimit.PerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MIN must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

func newLookup(envFiles []string) (*lookup, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}
	return &lookup{dotenv: dotenv}, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	out := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out, nil
}

// lookup resolves keys from the process environment, then the .env values.
// Parse failures are collected rather than silently defaulted.
type lookup struct {
	dotenv map[string]string
	errs   []error
}

func (l *lookup) raw(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return l.dotenv[key]
}

func (l *lookup) str(key, def string) string {
	if v := l.raw(key); v != "" {
		return v
	}
	return def
}

func (l *lookup) integer(key string, def int) int {
	v := l.raw(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (l *lookup) boolean(key string, def bool) bool {
	v := l.raw(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (l *lookup) duration(key string, def time.Duration) time.Duration {
	v := l.raw(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (l *lookup) slice(key string, def []string) []string {
	v := l.raw(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
