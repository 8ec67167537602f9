package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
// Validation failures are fatal at startup; nothing else in the service is.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Sources.Primary.URL == "" {
		return errors.New("sources.primary.url is required")
	}

	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be positive")
	}
	if c.Poller.FetchTimeout <= 0 {
		return errors.New("poller.fetch_timeout must be positive")
	}
	if c.Poller.FetchTimeout > c.Poller.Interval {
		return fmt.Errorf("poller.fetch_timeout (%v) cannot exceed poller.interval (%v)", c.Poller.FetchTimeout, c.Poller.Interval)
	}
	if c.Poller.WindowSpan < c.Poller.Interval {
		return fmt.Errorf("poller.window_span (%v) must be at least poller.interval (%v)", c.Poller.WindowSpan, c.Poller.Interval)
	}
	if c.Poller.ReadyThreshold < 1 {
		return errors.New("poller.ready_threshold must be >= 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}
	if c.Server.Port == c.Metrics.Port {
		return fmt.Errorf("server.port and metrics.port must differ, both are %d", c.Server.Port)
	}

	if c.History.Enabled {
		if err := c.History.Postgres.validate("history.postgres"); err != nil {
			return err
		}
		if c.History.BatchSize < 1 {
			return errors.New("history.batch_size must be >= 1")
		}
		if c.History.BufferSize < 1 {
			return errors.New("history.buffer_size must be >= 1")
		}
		if c.History.FlushInterval <= 0 {
			return errors.New("history.flush_interval must be positive")
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
