package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rpggio/workefforts/internal/filestore"
	"gopkg.in/yaml.v3"
)

// Config defines workefforts configuration.
type Config struct {
	// Root is the directory holding the status directories.
	Root        string        `yaml:"root"`
	MarkerDir   string        `yaml:"marker_dir"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
	Counter     CounterConfig `yaml:"counter"`
	Index       IndexConfig   `yaml:"index"`
	Log         LogConfig     `yaml:"log"`
}

type CounterConfig struct {
	DatePrefix bool `yaml:"date_prefix"`
}

type IndexConfig struct {
	// Path of the SQLite index; empty means <root>/.workefforts/index.db.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Root:        ".",
		MarkerDir:   "work_efforts",
		LockTimeout: 5 * time.Second,
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("WORKEFFORTS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if root := os.Getenv("WORKEFFORTS_ROOT"); root != "" {
		cfg.Root = root
	}
	if marker := os.Getenv("WORKEFFORTS_MARKER_DIR"); marker != "" {
		cfg.MarkerDir = marker
	}
	if indexPath := os.Getenv("WORKEFFORTS_INDEX_PATH"); indexPath != "" {
		cfg.Index.Path = indexPath
	}
	if level := os.Getenv("WORKEFFORTS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("WORKEFFORTS_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if timeoutStr := os.Getenv("WORKEFFORTS_LOCK_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WORKEFFORTS_LOCK_TIMEOUT: %w", err)
		}
		cfg.LockTimeout = timeout
	}
	if prefixStr := os.Getenv("WORKEFFORTS_DATE_PREFIX"); prefixStr != "" {
		prefix, err := strconv.ParseBool(prefixStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WORKEFFORTS_DATE_PREFIX: %w", err)
		}
		cfg.Counter.DatePrefix = prefix
	}

	if cfg.LockTimeout <= 0 {
		return Config{}, fmt.Errorf("lock_timeout must be positive, got %s", cfg.LockTimeout)
	}

	return cfg, nil
}

// IndexPath resolves the index location against the root.
func (c Config) IndexPath() string {
	if c.Index.Path != "" {
		return c.Index.Path
	}
	return filestore.StatePath(c.Root, "index.db")
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
