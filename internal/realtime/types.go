package realtime

import (
	"encoding/json"
	"errors"
	"time"
)

// Status is the connection state machine's current state. Exactly one
// connection exists per Manager; all components other than the Manager
// treat Status as read-only.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Envelope is the wire unit in both directions. Type is dot-namespaced
// (e.g. "order.updated", "driver.location.updated"). Outbound frames carry
// no timestamp; the server assigns it.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// outboundFrame is the serialized shape of Send.
type outboundFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Reserved inbound frame types handled by the Manager itself; these never
// fan out to subscribers.
const (
	frameConnected = "connected"
	framePong      = "pong"
	framePing      = "ping"
)

// ClientConfig holds settings for a single WebSocket transport.
type ClientConfig struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	BufferSize       int
}

// DefaultClientConfig returns default transport settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       1000,
	}
}

// ManagerConfig holds connection manager settings.
type ManagerConfig struct {
	// URL is the realtime endpoint without credentials, e.g.
	// "wss://ops.example.com/ws/realtime". The session token is appended
	// as a query parameter on every connect attempt.
	URL string

	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int

	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	PingInterval      time.Duration
	MessageBufferSize int
}

// DefaultManagerConfig returns default manager settings. The backoff
// sequence with these values is 1s, 2s, 4s, 8s, 16s, capped at 30s.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectBaseDelay:   1 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: 5,
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         5 * time.Second,
		PingInterval:         30 * time.Second,
		MessageBufferSize:    1000,
	}
}

// Sentinel errors.
var (
	ErrNotConnected  = errors.New("websocket not connected")
	ErrAlreadyClosed = errors.New("websocket already closed")
)
