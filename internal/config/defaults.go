package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTokenEnv             = "FLEETSYNC_TOKEN"
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultPingInterval         = 30 * time.Second
	DefaultMessageBufferSize    = 1000
	DefaultThrottleWindow       = 1 * time.Second
	DefaultThrottleStaleAfter   = 60 * time.Second
	DefaultThrottleMaxEntries   = 1000
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultBatchSize            = 500
	DefaultFlushInterval        = 1 * time.Second
	DefaultArchiveBufferSize    = 5000
	DefaultHealthPort           = 8080
	DefaultHealthPath           = "/health"
)

func (c *SyncdConfig) applyDefaults() {
	// Session defaults
	if c.Session.TokenEnv == "" && c.Session.Token == "" {
		c.Session.TokenEnv = DefaultTokenEnv
	}

	// Realtime defaults
	if c.Realtime.ReconnectBaseDelay == 0 {
		c.Realtime.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Realtime.ReconnectMaxDelay == 0 {
		c.Realtime.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Realtime.MaxReconnectAttempts == 0 {
		c.Realtime.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Realtime.HandshakeTimeout == 0 {
		c.Realtime.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Realtime.WriteTimeout == 0 {
		c.Realtime.WriteTimeout = DefaultWriteTimeout
	}
	if c.Realtime.PingInterval == 0 {
		c.Realtime.PingInterval = DefaultPingInterval
	}
	if c.Realtime.MessageBufferSize == 0 {
		c.Realtime.MessageBufferSize = DefaultMessageBufferSize
	}

	// Throttle defaults
	if c.Throttle.Window == 0 {
		c.Throttle.Window = DefaultThrottleWindow
	}
	if c.Throttle.StaleAfter == 0 {
		c.Throttle.StaleAfter = DefaultThrottleStaleAfter
	}
	if c.Throttle.MaxEntries == 0 {
		c.Throttle.MaxEntries = DefaultThrottleMaxEntries
	}

	// Archive defaults
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultFlushInterval
	}
	if c.Archive.BufferSize == 0 {
		c.Archive.BufferSize = DefaultArchiveBufferSize
	}
	applyDBDefaults(&c.Archive.Database)

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
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
