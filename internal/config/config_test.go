package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-pricefeed
sources:
  primary:
    url: https://api.example.com/v1/price
    price_path: data.price
  secondary:
    url: https://backup.example.com/price
poller:
  interval: 30s
  window_span: 5m
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-pricefeed" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-pricefeed")
	}
	if cfg.Sources.Primary.URL != "https://api.example.com/v1/price" {
		t.Errorf("Sources.Primary.URL = %q, want %q", cfg.Sources.Primary.URL, "https://api.example.com/v1/price")
	}
	if cfg.Sources.Primary.PricePath != "data.price" {
		t.Errorf("Sources.Primary.PricePath = %q, want %q", cfg.Sources.Primary.PricePath, "data.price")
	}
	if cfg.Poller.Interval != 30*time.Second {
		t.Errorf("Poller.Interval = %v, want %v", cfg.Poller.Interval, 30*time.Second)
	}
	if cfg.Poller.WindowSpan != 5*time.Minute {
		t.Errorf("Poller.WindowSpan = %v, want %v", cfg.Poller.WindowSpan, 5*time.Minute)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	yaml := `
sources:
  primary:
    url: https://api.example.com/v1/price
poller:
  interval: sixty-seconds
`
	path := writeTempFile(t, yaml)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load succeeded with invalid duration, want error")
	}
	if !strings.Contains(err.Error(), "poller.interval") {
		t.Errorf("error = %q, want it to name poller.interval", err)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_PRIMARY_URL", "https://env.example.com/price")
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-pricefeed
sources:
  primary:
    url: ${TEST_PRIMARY_URL}
history:
  enabled: true
  postgres:
    host: localhost
    name: pricefeed
    user: feeder
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sources.Primary.URL != "https://env.example.com/price" {
		t.Errorf("Sources.Primary.URL = %q, want %q", cfg.Sources.Primary.URL, "https://env.example.com/price")
	}
	if cfg.History.Postgres.Password != "secret123" {
		t.Errorf("History.Postgres.Password = %q, want %q", cfg.History.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
sources:
  primary:
    url: https://api.example.com/v1/price
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if !strings.HasPrefix(cfg.Instance.ID, "pricefeed-") {
		t.Errorf("Instance.ID = %q, want generated pricefeed-* id", cfg.Instance.ID)
	}
	if cfg.Sources.Primary.Name != "primary" {
		t.Errorf("Sources.Primary.Name = %q, want default %q", cfg.Sources.Primary.Name, "primary")
	}
	if cfg.Sources.Primary.PricePath != DefaultPricePath {
		t.Errorf("Sources.Primary.PricePath = %q, want default %q", cfg.Sources.Primary.PricePath, DefaultPricePath)
	}
	if cfg.Poller.Interval != DefaultPollInterval {
		t.Errorf("Poller.Interval = %v, want default %v", cfg.Poller.Interval, DefaultPollInterval)
	}
	if cfg.Poller.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("Poller.FetchTimeout = %v, want default %v", cfg.Poller.FetchTimeout, DefaultFetchTimeout)
	}
	if cfg.Poller.WindowSpan != DefaultWindowSpan {
		t.Errorf("Poller.WindowSpan = %v, want default %v", cfg.Poller.WindowSpan, DefaultWindowSpan)
	}
	if cfg.Poller.ReadyThreshold != DefaultReadyThreshold {
		t.Errorf("Poller.ReadyThreshold = %d, want default %d", cfg.Poller.ReadyThreshold, DefaultReadyThreshold)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want disabled by default")
	}
	if cfg.History.Postgres.Port != DefaultDBPort {
		t.Errorf("History.Postgres.Port = %d, want default %d", cfg.History.Postgres.Port, DefaultDBPort)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Instance: InstanceConfig{ID: "test"},
			Sources: SourcesConfig{
				Primary: SourceConfig{Name: "primary", URL: "https://api.example.com/price", PricePath: "price"},
			},
			Poller: PollerConfig{
				Interval:       time.Minute,
				FetchTimeout:   5 * time.Second,
				WindowSpan:     10 * time.Minute,
				ReadyThreshold: 3,
			},
			Server:  ServerConfig{Port: 8080},
			Metrics: MetricsConfig{Port: 9090, Path: "/metrics"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "missing primary url",
			mutate:  func(c *Config) { c.Sources.Primary.URL = "" },
			wantErr: "sources.primary.url is required",
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Poller.Interval = 0 },
			wantErr: "poller.interval must be positive",
		},
		{
			name:    "fetch timeout exceeds interval",
			mutate:  func(c *Config) { c.Poller.FetchTimeout = 2 * time.Minute },
			wantErr: "poller.fetch_timeout (2m0s) cannot exceed poller.interval (1m0s)",
		},
		{
			name:    "window span below interval",
			mutate:  func(c *Config) { c.Poller.WindowSpan = 30 * time.Second },
			wantErr: "poller.window_span (30s) must be at least poller.interval (1m0s)",
		},
		{
			name:    "zero ready threshold",
			mutate:  func(c *Config) { c.Poller.ReadyThreshold = 0 },
			wantErr: "poller.ready_threshold must be >= 1",
		},
		{
			name:    "port clash",
			mutate:  func(c *Config) { c.Metrics.Port = 8080 },
			wantErr: "server.port and metrics.port must differ, both are 8080",
		},
		{
			name: "history enabled without postgres host",
			mutate: func(c *Config) {
				c.History.Enabled = true
				c.History.BatchSize = 100
				c.History.BufferSize = 1024
				c.History.FlushInterval = 5 * time.Second
			},
			wantErr: "history.postgres.host is required",
		},
		{
			name: "history min conns exceeds max conns",
			mutate: func(c *Config) {
				c.History.Enabled = true
				c.History.BatchSize = 100
				c.History.BufferSize = 1024
				c.History.FlushInterval = 5 * time.Second
				c.History.Postgres = DBConfig{
					Host: "localhost", Name: "db", User: "user", Password: "pass",
					MaxConns: 2, MinConns: 4,
				}
			},
			wantErr: "history.postgres.min_conns (4) cannot exceed max_conns (2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
