package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *SyncdConfig) Validate() error {
	if c.Instance.ID == "" {
		return fmt.Errorf("instance.id is required")
	}

	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
		return fmt.Errorf("server.url must use ws:// or wss:// scheme, got %q", c.Server.URL)
	}

	if c.Realtime.ReconnectBaseDelay <= 0 {
		return fmt.Errorf("realtime.reconnect_base_delay must be positive")
	}
	if c.Realtime.ReconnectMaxDelay < c.Realtime.ReconnectBaseDelay {
		return fmt.Errorf("realtime.reconnect_max_delay must be >= reconnect_base_delay")
	}
	if c.Realtime.MaxReconnectAttempts < 1 {
		return fmt.Errorf("realtime.max_reconnect_attempts must be >= 1")
	}

	if c.Throttle.Window <= 0 {
		return fmt.Errorf("throttle.window must be positive")
	}
	if c.Throttle.MaxEntries < 1 {
		return fmt.Errorf("throttle.max_entries must be >= 1")
	}

	if c.Archive.Enabled {
		db := c.Archive.Database
		if db.Host == "" {
			return fmt.Errorf("archive.database.host is required when archive is enabled")
		}
		if db.Name == "" {
			return fmt.Errorf("archive.database.name is required when archive is enabled")
		}
		if db.User == "" {
			return fmt.Errorf("archive.database.user is required when archive is enabled")
		}
		if c.Archive.BatchSize < 1 {
			return fmt.Errorf("archive.batch_size must be >= 1")
		}
	}

	return nil
}
