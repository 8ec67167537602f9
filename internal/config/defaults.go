package config

import (
	"time"

	"github.com/google/uuid"
)

// Default values for optional configuration fields.
const (
	DefaultPricePath      = "price"
	DefaultPollInterval   = 60 * time.Second
	DefaultFetchTimeout   = 5 * time.Second
	DefaultWindowSpan     = 10 * time.Minute
	DefaultReadyThreshold = 3
	DefaultServerPort     = 8080
	DefaultMetricsPort    = 9090
	DefaultMetricsPath    = "/metrics"
	DefaultBatchSize      = 100
	DefaultFlushInterval  = 5 * time.Second
	DefaultBufferSize     = 1024
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 4
	DefaultMinConns       = 1
)

func (c *Config) applyDefaults() {
	// Instance defaults
	if c.Instance.ID == "" {
		c.Instance.ID = "pricefeed-" + uuid.NewString()[:8]
	}

	// Source defaults
	if c.Sources.Primary.Name == "" {
		c.Sources.Primary.Name = "primary"
	}
	if c.Sources.Primary.PricePath == "" {
		c.Sources.Primary.PricePath = DefaultPricePath
	}
	if c.Sources.Secondary.Name == "" {
		c.Sources.Secondary.Name = "secondary"
	}
	if c.Sources.Secondary.PricePath == "" {
		c.Sources.Secondary.PricePath = DefaultPricePath
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.FetchTimeout == 0 {
		c.Poller.FetchTimeout = DefaultFetchTimeout
	}
	if c.Poller.WindowSpan == 0 {
		c.Poller.WindowSpan = DefaultWindowSpan
	}
	if c.Poller.ReadyThreshold == 0 {
		c.Poller.ReadyThreshold = DefaultReadyThreshold
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// History defaults
	if c.History.BatchSize == 0 {
		c.History.BatchSize = DefaultBatchSize
	}
	if c.History.FlushInterval == 0 {
		c.History.FlushInterval = DefaultFlushInterval
	}
	if c.History.BufferSize == 0 {
		c.History.BufferSize = DefaultBufferSize
	}
	applyDBDefaults(&c.History.Postgres)
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
