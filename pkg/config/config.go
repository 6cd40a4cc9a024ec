// Package config loads lexref settings from an optional YAML file, a .env
// file and LEXREF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverLibrary  = "library"
	DriverPostgres = "postgres"
)

// Defaults.
const (
	DefaultLibraryPath = ".lexref"
	DefaultAddr        = ":8080"
	DefaultCacheSize   = 1024
	DefaultLogLevel    = "info"
)

// Config is the full runtime configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	LibraryPath string `yaml:"library_path"`
	DSN         string `yaml:"dsn"`
	// CacheSize is the LRU size in front of the store. Zero disables the
	// cache.
	CacheSize int `yaml:"cache_size"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:      DriverLibrary,
			LibraryPath: DefaultLibraryPath,
			CacheSize:   DefaultCacheSize,
		},
		Server: ServerConfig{Addr: DefaultAddr},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

// Load builds a Config. A .env file in the working directory is loaded
// first if present, then the YAML file at path (skipped when path is
// empty), then LEXREF_* environment overrides. Unset fields keep their
// defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := env("LEXREF_STORE_DRIVER"); v != "" {
		c.Store.Driver = strings.ToLower(v)
	}
	if v := env("LEXREF_LIBRARY_PATH"); v != "" {
		c.Store.LibraryPath = v
	}
	if v := env("LEXREF_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := env("LEXREF_CACHE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LEXREF_CACHE_SIZE %q: %w", v, err)
		}
		c.Store.CacheSize = size
	}
	if v := env("LEXREF_ADDR"); v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		c.Server.Addr = v
	}
	if v := firstNonEmpty(env("LEXREF_LOG_LEVEL"), env("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) fillDefaults() {
	c.Store.Driver = firstNonEmpty(strings.ToLower(strings.TrimSpace(c.Store.Driver)), DriverLibrary)
	c.Store.LibraryPath = firstNonEmpty(strings.TrimSpace(c.Store.LibraryPath), DefaultLibraryPath)
	c.Server.Addr = firstNonEmpty(strings.TrimSpace(c.Server.Addr), DefaultAddr)
	c.Log.Level = firstNonEmpty(strings.TrimSpace(c.Log.Level), DefaultLogLevel)
}

// Validate reports configuration that cannot produce a working store.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverLibrary:
		if c.Store.LibraryPath == "" {
			errs = append(errs, errors.New("store.library_path is required for the library driver"))
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q (want %s or %s)", c.Store.Driver, DriverLibrary, DriverPostgres))
	}
	if c.Store.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("store.cache_size must not be negative, got %d", c.Store.CacheSize))
	}
	return errors.Join(errs...)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
