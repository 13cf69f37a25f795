package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/teampulse/pkg/domain/analytics"
	"github.com/felixgeelhaar/teampulse/pkg/storage"
)

// Source kinds.
const (
	SourceFilesystem = "filesystem"
	SourcePostgres   = "postgres"
	SourceSQLite     = "sqlite"
)

// Environment overrides.
const (
	EnvDatabaseURL = "TEAMPULSE_DATABASE_URL"
	EnvSource      = "TEAMPULSE_SOURCE"
	EnvOrg         = "TEAMPULSE_ORG"
	EnvMember      = "TEAMPULSE_MEMBER"
	EnvLogLevel    = "TEAMPULSE_LOG_LEVEL"
	EnvIdealLoad   = "TEAMPULSE_IDEAL_LOAD"
)

const defaultSQLitePath = "teampulse.db"

// Config is the content of .teampulse/config.yaml after environment
// overrides are applied.
type Config struct {
	Source         string        `yaml:"source"`
	DatabaseURL    string        `yaml:"database_url,omitempty"`
	SQLitePath     string        `yaml:"sqlite_path,omitempty"`
	OrganizationID string        `yaml:"organization_id,omitempty"`
	MemberID       string        `yaml:"member_id,omitempty"`
	IdealLoad      int           `yaml:"ideal_load,omitempty"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout,omitempty"`
	CacheSize      int           `yaml:"cache_size,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`
	LogFormat      string        `yaml:"log_format,omitempty"`
	ServeAddr      string        `yaml:"serve_addr,omitempty"`

	Webhooks []webhook.Endpoint `yaml:"webhooks,omitempty"`
}

// Default returns the configuration written by `teampulse init`.
func Default() *Config {
	return &Config{
		Source:       SourceFilesystem,
		IdealLoad:    analytics.DefaultIdealLoad,
		FetchTimeout: 10 * time.Second,
		CacheSize:    64,
		LogLevel:     "info",
		LogFormat:    "text",
		ServeAddr:    "127.0.0.1:8420",
	}
}

// Load reads .teampulse/config.yaml under root, loads a .env file from root
// when present, and applies environment overrides. A missing config file
// yields the defaults.
func Load(root string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	cfg := Default()
	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvSource); v != "" {
		c.Source = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
		if os.Getenv(EnvSource) == "" {
			c.Source = SourcePostgres
		}
	}
	if v := os.Getenv(EnvOrg); v != "" {
		c.OrganizationID = v
	}
	if v := os.Getenv(EnvMember); v != "" {
		c.MemberID = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvIdealLoad); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvIdealLoad, v, err)
		}
		c.IdealLoad = n
	}
	return nil
}

// Validate checks that the selected source has what it needs.
func (c *Config) Validate() error {
	switch c.Source {
	case "", SourceFilesystem, SourceSQLite:
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("source %q requires database_url or %s", SourcePostgres, EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("unknown source %q (want %s, %s or %s)", c.Source, SourceFilesystem, SourcePostgres, SourceSQLite)
	}
	for _, ep := range c.Webhooks {
		if ep.Enabled && ep.URL == "" {
			return fmt.Errorf("webhook %q has no url", ep.Name)
		}
	}
	if c.IdealLoad < 0 {
		return fmt.Errorf("ideal_load must not be negative")
	}
	return nil
}

// ResolveSQLitePath returns the database path, relative paths being taken
// from the workspace directory.
func (c *Config) ResolveSQLitePath(root string) string {
	p := c.SQLitePath
	if p == "" {
		p = defaultSQLitePath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, storage.WorkspaceDir, p)
}

// AnalyticsOptions returns the aggregation thresholds configured here.
func (c *Config) AnalyticsOptions() analytics.Options {
	opts := analytics.DefaultOptions()
	if c.IdealLoad > 0 {
		opts.IdealLoad = c.IdealLoad
	}
	return opts
}
