package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDatasetPath = "spiderplot (002).csv"
	DefaultNATSSubject = "spider.query"
	DefaultNATSQueue   = "spider-service"
)

type ServiceConfig struct {
	Name     string `yaml:"name"`
	HTTPAddr string `yaml:"http_addr"`
}

// DatasetConfig points at the CSV file read on every query. Relative paths
// resolve against the working directory.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// NATSConfig enables the request-reply responder when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Queue   string `yaml:"queue"`
}

type Config struct {
	ConfigVersion int           `yaml:"config_version"`
	Service       ServiceConfig `yaml:"service"`
	Dataset       DatasetConfig `yaml:"dataset"`
	Log           LogConfig     `yaml:"log"`
	CORS          CORSConfig    `yaml:"cors"`
	NATS          NATSConfig    `yaml:"nats"`
	ReadTimeout   time.Duration `yaml:"-"`
	WriteTimeout  time.Duration `yaml:"-"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Service.HTTPAddr == "" {
		return nil, fmt.Errorf("service.http_addr is required")
	}

	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = DefaultDatasetPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		return nil, fmt.Errorf("log.format must be json or console, got %q", cfg.Log.Format)
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = DefaultNATSSubject
	}
	if cfg.NATS.Queue == "" {
		cfg.NATS.Queue = DefaultNATSQueue
	}

	cfg.ReadTimeout = 5 * time.Second
	cfg.WriteTimeout = 10 * time.Second
	return &cfg, nil
}
