// Package config loads editor settings from YAML with environment overrides.
//
// Sources, lowest priority first:
//
//  1. built-in defaults
//  2. the YAML file passed to Load (a missing file is not an error)
//  3. .env then .env.local in the working directory, or ENV_FILE if set
//  4. BLOCKEDITOR_* environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "BLOCKEDITOR_"

type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	History  HistoryConfig  `yaml:"history"`
	Watch    WatchConfig    `yaml:"watch"`
	Publish  PublishConfig  `yaml:"publish"`
}

type DatabaseConfig struct {
	// Driver is "sqlite", "postgres" or "mysql".
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type HistoryConfig struct {
	MaxEntries    int    `yaml:"max_entries"`
	PruneSchedule string `yaml:"prune_schedule"`
}

type WatchConfig struct {
	Dir string `yaml:"dir"`
}

// PublishConfig mirrors documents to MongoDB when MongoURI is set.
type PublishConfig struct {
	MongoURI   string `yaml:"mongo_uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "blockeditor")
	return &Config{
		DataDir:  dataDir,
		Database: DatabaseConfig{Driver: "sqlite"},
		Log:      LogConfig{Level: "info"},
		History:  HistoryConfig{MaxEntries: 40, PruneSchedule: "@hourly"},
		Publish:  PublishConfig{Database: "blockeditor", Collection: "pages"},
	}
}

// Load reads path (optional) and applies env files and variables on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabasePath returns where the sqlite file lives when no DSN is given.
func (c *Config) DatabasePath() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return filepath.Join(c.DataDir, "blockeditor.db")
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres", "mysql":
		if c.Database.DSN == "" {
			return fmt.Errorf("config: database.dsn is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("config: history.max_entries must be positive, got %d", c.History.MaxEntries)
	}
	return nil
}

func (c *Config) setDefaults() {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = def.History.MaxEntries
	}
	if c.History.PruneSchedule == "" {
		c.History.PruneSchedule = def.History.PruneSchedule
	}
	if c.Publish.Database == "" {
		c.Publish.Database = def.Publish.Database
	}
	if c.Publish.Collection == "" {
		c.Publish.Collection = def.Publish.Collection
	}
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local and .env.
// godotenv never overrides variables that are already set, so the file
// loaded first wins.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	setString("DATA_DIR", &cfg.DataDir)
	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_DSN", &cfg.Database.DSN)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("HISTORY_PRUNE_SCHEDULE", &cfg.History.PruneSchedule)
	setString("WATCH_DIR", &cfg.Watch.Dir)
	setString("PUBLISH_MONGO_URI", &cfg.Publish.MongoURI)
	setString("PUBLISH_DATABASE", &cfg.Publish.Database)
	setString("PUBLISH_COLLECTION", &cfg.Publish.Collection)

	if v, ok := os.LookupEnv(envPrefix + "HISTORY_MAX_ENTRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sHISTORY_MAX_ENTRIES: %w", envPrefix, err)
		}
		cfg.History.MaxEntries = n
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_DEVELOPMENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sLOG_DEVELOPMENT: %w", envPrefix, err)
		}
		cfg.Log.Development = b
	}
	return nil
}
