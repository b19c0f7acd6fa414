package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for yada.
type Config struct {
	DataDir string        `yaml:"data_dir"` // relative paths resolve against the project dir
	User    string        `yaml:"user"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Profile ProfileConfig `yaml:"profile"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "bolt", "sqlite" or "memory"
}

// CatalogConfig holds food catalog configuration.
type CatalogConfig struct {
	Resolution      string        `yaml:"resolution"` // "single-pass" or "deep"
	SeedSample      bool          `yaml:"seed_sample"`
	SearchCacheSize int           `yaml:"search_cache_size"` // 0 disables the cache
	SearchCacheTTL  time.Duration `yaml:"search_cache_ttl"`
}

// IngestConfig filters the files read by `food ingest`.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ProfileConfig holds profile configuration.
type ProfileConfig struct {
	HistoryLimit  int    `yaml:"history_limit"` // 0 = unbounded
	DefaultMethod string `yaml:"default_method"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// envOverrides mirrors the settings that may come from the environment.
type envOverrides struct {
	DataDir    string `env:"YADA_DATA_DIR"`
	User       string `env:"YADA_USER"`
	Driver     string `env:"YADA_STORAGE_DRIVER"`
	Resolution string `env:"YADA_RESOLUTION"`
	LogLevel   string `env:"LOG_LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".yada",
		User:    "default",
		Storage: StorageConfig{
			Driver: "bolt",
		},
		Catalog: CatalogConfig{
			Resolution:      "single-pass",
			SeedSample:      true,
			SearchCacheSize: 128,
			SearchCacheTTL:  10 * time.Minute,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.yaml", "**/*.yml", "**/*.json"},
			Excludes: []string{"**/.git/**", "**/.yada/**", "**/node_modules/**"},
		},
		Profile: ProfileConfig{
			HistoryLimit:  10,
			DefaultMethod: "harris-benedict",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFromDir loads dir/.env into the environment, then the first of
// yada.yaml and .yada/config.yaml found in dir.
func LoadFromDir(dir string) (*Config, error) {
	if err := LoadDotEnv(dir); err != nil {
		return nil, err
	}

	for _, path := range []string{
		filepath.Join(dir, "yada.yaml"),
		filepath.Join(dir, ".yada", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Load("")
}

// LoadDotEnv loads dir/.env if present. Variables already set in the
// environment win.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("failed to decode environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.DataDir, env.DataDir)
	set(&c.User, env.User)
	set(&c.Storage.Driver, env.Driver)
	set(&c.Catalog.Resolution, env.Resolution)
	set(&c.Logging.Level, env.LogLevel)
	return nil
}

// Validate rejects settings the rest of the program cannot use.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "bolt", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}
	if c.User == "" {
		return errors.New("user must not be empty")
	}
	if c.Catalog.SearchCacheSize < 0 {
		return errors.New("catalog.search_cache_size must not be negative")
	}
	if c.Profile.HistoryLimit < 0 {
		return errors.New("profile.history_limit must not be negative")
	}
	return nil
}

// Save saves configuration to a YAML file.
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

// DataPath resolves DataDir against the project dir.
func (c *Config) DataPath(dir string) string {
	if filepath.IsAbs(c.DataDir) {
		return c.DataDir
	}
	return filepath.Join(dir, c.DataDir)
}

// StorePath returns the database file for the configured driver.
func (c *Config) StorePath(dir string) string {
	name := "yada.db"
	if c.Storage.Driver == "sqlite" {
		name = "yada.sqlite"
	}
	return filepath.Join(c.DataPath(dir), name)
}

// EnsureDataDir ensures the data directory exists.
func (c *Config) EnsureDataDir(dir string) error {
	return os.MkdirAll(c.DataPath(dir), 0755)
}
