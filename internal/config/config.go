package config

import "time"

// SyncdConfig is the root configuration for a syncd instance.
type SyncdConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this syncd.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the realtime endpoint settings.
type ServerConfig struct {
	// URL is the full realtime endpoint, e.g. "wss://ops.example.com/ws/realtime".
	// The scheme (ws/wss) follows the deployment's security level.
	URL string `yaml:"url"`
}

// SessionConfig holds the credential source settings.
type SessionConfig struct {
	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `yaml:"token_env"`
	// Token is a literal token; TokenEnv takes precedence when both are set.
	Token string `yaml:"token"`
}

// RealtimeConfig holds connection manager settings.
type RealtimeConfig struct {
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	MessageBufferSize    int           `yaml:"message_buffer_size"`
}

// ThrottleConfig holds high-frequency stream throttling settings.
type ThrottleConfig struct {
	Window     time.Duration `yaml:"window"`
	StaleAfter time.Duration `yaml:"stale_after"`
	MaxEntries int           `yaml:"max_entries"`
}

// ArchiveConfig holds the optional event archiver settings.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single PostgreSQL connection.
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

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
