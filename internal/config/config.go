// Package config loads server settings from a YAML file, falling back to
// environment variables when the file is absent.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

type HTTPConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"5s"`
}

type RecordsConfig struct {
	BaseURL       string        `yaml:"base_url" env:"RECORDS_BASE_URL"`
	APIKey        string        `yaml:"api_key" env:"RECORDS_API_KEY"`
	Timeout       time.Duration `yaml:"timeout" env:"RECORDS_TIMEOUT" env-default:"10s"`
	TaskTable     string        `yaml:"task_table" env:"RECORDS_TASK_TABLE" env-default:"task"`
	CategoryTable string        `yaml:"category_table" env:"RECORDS_CATEGORY_TABLE" env-default:"category"`
}

type Config struct {
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP          HTTPConfig    `yaml:"http_server"`
	Backend       string        `yaml:"store_backend" env:"STORE_BACKEND" env-default:"sqlite"`
	DBPath        string        `yaml:"db_path" env:"DB_PATH" env-default:"./data/taskflow.db"`
	MemoryLatency time.Duration `yaml:"memory_latency" env:"MEMORY_LATENCY" env-default:"0s"`
	Records       RecordsConfig `yaml:"records"`
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite:
		return nil
	case BackendRemote:
		if c.Records.BaseURL == "" {
			return errors.New("RECORDS_BASE_URL is required for the remote backend")
		}
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// Load reads configPath, or the environment when configPath is empty or
// does not exist.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath != "" {
		err := cleanenv.ReadConfig(configPath, &cfg)
		if err == nil {
			return cfg, cfg.Validate()
		}
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("cannot read config %q: %w", configPath, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot read env: %w", err)
	}
	return cfg, cfg.Validate()
}

// MustLoad is Load that exits the process on error.
func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("config: %s", err)
	}
	return cfg
}
