package config

import (
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "dev", "spider_service.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Service.HTTPAddr != ":5000" {
		t.Errorf("expected http_addr :5000, got %q", cfg.Service.HTTPAddr)
	}
	if cfg.Dataset.Path != "data/spiderplot.csv" {
		t.Errorf("unexpected dataset path %q", cfg.Dataset.Path)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected nats disabled in dev config, got %q", cfg.NATS.URL)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("service:\n  http_addr: \":8080\"\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Dataset.Path != DefaultDatasetPath {
		t.Errorf("expected default dataset path, got %q", cfg.Dataset.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard cors origin, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.NATS.Subject != DefaultNATSSubject || cfg.NATS.Queue != DefaultNATSQueue {
		t.Errorf("unexpected nats defaults: %+v", cfg.NATS)
	}
	if cfg.ReadTimeout == 0 || cfg.WriteTimeout == 0 {
		t.Error("expected server timeouts to be set")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing http_addr": "dataset:\n  path: x.csv\n",
		"bad log format":    "service:\n  http_addr: \":1\"\nlog:\n  format: xml\n",
		"invalid yaml":      "service: [",
	}

	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
