// Package config loads internmatch settings from a YAML file, an optional
// .env file and INTERNMATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all internmatch configuration.
type Config struct {
	// BaseDir anchors relative paths. Empty means ResolveBaseDir().
	BaseDir string `yaml:"base_dir"`

	Server       ServerConfig       `yaml:"server"`
	Data         DataConfig         `yaml:"data"`
	Recommend    RecommendConfig    `yaml:"recommend"`
	Training     TrainingConfig     `yaml:"training"`
	Applications ApplicationsConfig `yaml:"applications"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig configures the HTTP listener and sessions.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	SessionTTL    string `yaml:"session_ttl"`
	SecureCookies bool   `yaml:"secure_cookies"`
	// Store is "sqlite" or "memory".
	Store string `yaml:"store"`
}

// DataConfig points at the catalog, model bundle and database.
type DataConfig struct {
	Catalog  string `yaml:"catalog"`
	Model    string `yaml:"model"`
	Database string `yaml:"database"`
}

// RecommendConfig tunes the online path.
type RecommendConfig struct {
	BatchSize int  `yaml:"batch_size"`
	Watch     bool `yaml:"watch"`
}

// TrainingConfig tunes the offline path.
type TrainingConfig struct {
	TestSize    float64 `yaml:"test_size"`
	Seed        uint64  `yaml:"seed"`
	MaxFeatures int     `yaml:"max_features"`
}

// ApplicationsConfig controls tracker files written by the apply action.
type ApplicationsConfig struct {
	Dir           string `yaml:"dir"`
	WriteTrackers bool   `yaml:"write_trackers"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":5000",
			SessionTTL: "24h",
			Store:      "sqlite",
		},
		Data: DataConfig{
			Catalog:  "internships.csv",
			Model:    "internshipmodel.json",
			Database: filepath.Join("data", "users.db"),
		},
		Recommend: RecommendConfig{
			BatchSize: 5,
			Watch:     true,
		},
		Training: TrainingConfig{
			TestSize:    0.2,
			Seed:        42,
			MaxFeatures: 1000,
		},
		Applications: ApplicationsConfig{
			Dir:           filepath.Join("data", "applications"),
			WriteTrackers: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path (if it exists) over the defaults, then applies .env and
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(ExpandHome(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("INTERNMATCH_ROOT"); v != "" {
		c.BaseDir = v
	}
	if v := os.Getenv("INTERNMATCH_DB"); v != "" {
		c.Data.Database = v
	}
	if v := os.Getenv("INTERNMATCH_CATALOG"); v != "" {
		c.Data.Catalog = v
	}
	if v := os.Getenv("INTERNMATCH_MODEL"); v != "" {
		c.Data.Model = v
	}
	if v := os.Getenv("INTERNMATCH_ADDR"); v != "" {
		c.Server.Addr = v
	} else if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("INTERNMATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if c.Recommend.BatchSize <= 0 {
		return fmt.Errorf("recommend.batch_size must be positive, got %d", c.Recommend.BatchSize)
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be in (0, 1), got %v", c.Training.TestSize)
	}
	switch strings.ToLower(c.Server.Store) {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("server.store must be sqlite or memory, got %q", c.Server.Store)
	}
	return nil
}

// SessionTTL parses Server.SessionTTL.
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid server.session_ttl %q: %w", c.Server.SessionTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("server.session_ttl must be positive, got %s", d)
	}
	return d, nil
}

// Root returns the base directory for relative paths.
func (c *Config) Root() string {
	if c.BaseDir != "" {
		return ExpandHome(c.BaseDir)
	}
	return ResolveBaseDir()
}

// CatalogPath returns the absolute catalog CSV path.
func (c *Config) CatalogPath() string { return resolvePath(c.Root(), c.Data.Catalog) }

// ModelPath returns the absolute model bundle path.
func (c *Config) ModelPath() string { return resolvePath(c.Root(), c.Data.Model) }

// DatabasePath returns the absolute SQLite path.
func (c *Config) DatabasePath() string { return resolvePath(c.Root(), c.Data.Database) }

// ApplicationsDir returns where application trackers are written.
func (c *Config) ApplicationsDir() string { return resolvePath(c.Root(), c.Applications.Dir) }

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
