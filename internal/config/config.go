package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a pricefeed instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Sources  SourcesConfig  `yaml:"sources"`
	Poller   PollerConfig   `yaml:"poller"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	History  HistoryConfig  `yaml:"history"`
}

// InstanceConfig identifies this pricefeed instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// SourcesConfig holds the ordered upstream price sources. The primary source
// is tried first on every tick; the secondary is only consulted when the
// primary fails.
type SourcesConfig struct {
	Primary   SourceConfig `yaml:"primary"`
	Secondary SourceConfig `yaml:"secondary"`
}

// SourceConfig holds a single upstream price source.
type SourceConfig struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	PricePath string `yaml:"price_path"` // gjson path to the price field, e.g. "data.price"
}

// PollerConfig holds price poller settings.
type PollerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	WindowSpan     time.Duration `yaml:"window_span"`
	ReadyThreshold int           `yaml:"ready_threshold"`
}

// ServerConfig holds the query API listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// HistoryConfig holds the optional price history writer settings.
// The rolling window is never persisted; history is an append-only audit
// stream and is disabled unless explicitly enabled.
type HistoryConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
	Postgres      DBConfig      `yaml:"postgres"`
}

// UnmarshalYAML decodes poller durations from strings like "60s"; yaml.v3
// has no native time.Duration support.
func (p *PollerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval       string `yaml:"interval"`
		FetchTimeout   string `yaml:"fetch_timeout"`
		WindowSpan     string `yaml:"window_span"`
		ReadyThreshold int    `yaml:"ready_threshold"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	var err error
	if p.Interval, err = parseDuration("poller.interval", raw.Interval); err != nil {
		return err
	}
	if p.FetchTimeout, err = parseDuration("poller.fetch_timeout", raw.FetchTimeout); err != nil {
		return err
	}
	if p.WindowSpan, err = parseDuration("poller.window_span", raw.WindowSpan); err != nil {
		return err
	}
	p.ReadyThreshold = raw.ReadyThreshold
	return nil
}

// UnmarshalYAML decodes the history flush interval from a duration string.
func (h *HistoryConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled       bool     `yaml:"enabled"`
		BatchSize     int      `yaml:"batch_size"`
		FlushInterval string   `yaml:"flush_interval"`
		BufferSize    int      `yaml:"buffer_size"`
		Postgres      DBConfig `yaml:"postgres"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	var err error
	if h.FlushInterval, err = parseDuration("history.flush_interval", raw.FlushInterval); err != nil {
		return err
	}
	h.Enabled = raw.Enabled
	h.BatchSize = raw.BatchSize
	h.BufferSize = raw.BufferSize
	h.Postgres = raw.Postgres
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", field, s)
	}
	return d, nil
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
