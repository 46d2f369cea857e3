package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is a single duplex connection to the realtime endpoint.
type Transport interface {
	// Connect establishes the connection to url.
	Connect(ctx context.Context, url string) error

	// Close gracefully closes the connection. Idempotent.
	Close() error

	// Send writes raw bytes to the connection.
	Send(data []byte) error

	// Messages returns a channel of raw inbound frames. The channel is
	// closed when the read loop exits.
	Messages() <-chan []byte

	// Errors returns a channel of connection errors.
	Errors() <-chan error

	// IsOpen reports whether the connection is currently open.
	IsOpen() bool
}

// DialFunc constructs a Transport. The Manager uses NewTransport in
// production; tests inject fakes.
type DialFunc func(cfg ClientConfig, logger *slog.Logger) Transport

// wsTransport implements Transport over gorilla/websocket.
type wsTransport struct {
	cfg    ClientConfig
	logger *slog.Logger

	conn *websocket.Conn

	messages chan []byte
	errors   chan error
	done     chan struct{}

	// Write serialization
	writeMu sync.Mutex

	mu     sync.RWMutex
	open   bool
	closed bool
}

// NewTransport creates a WebSocket transport.
func NewTransport(cfg ClientConfig, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &wsTransport{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan []byte, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection.
func (t *wsTransport) Connect(ctx context.Context, url string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrAlreadyClosed
	}
	t.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.open = true
	t.mu.Unlock()

	// Answer protocol-level pings so intermediaries keep the connection up.
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	go t.readLoop()

	t.logger.Debug("websocket connected")
	return nil
}

// Close gracefully closes the connection.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.open = false
	conn := t.conn
	t.mu.Unlock()

	close(t.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

// Send writes raw bytes to the connection.
func (t *wsTransport) Send(data []byte) error {
	t.mu.RLock()
	if !t.open {
		t.mu.RUnlock()
		return ErrNotConnected
	}
	conn := t.conn
	t.mu.RUnlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Messages returns the inbound frame channel.
func (t *wsTransport) Messages() <-chan []byte {
	return t.messages
}

// Errors returns the error channel.
func (t *wsTransport) Errors() <-chan error {
	return t.errors
}

// IsOpen reports the current connection state.
func (t *wsTransport) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open
}

// readLoop reads frames until the connection drops or Close is called.
func (t *wsTransport) readLoop() {
	defer func() {
		t.mu.Lock()
		t.open = false
		t.mu.Unlock()
		close(t.messages)
	}()

	for {
		select {
		case <-t.done:
			return
		default:
		}

		_, data, err := t.conn.ReadMessage()
		if err != nil {
			// Errors after Close() are expected; report only involuntary ones.
			select {
			case <-t.done:
				return
			default:
				select {
				case t.errors <- err:
				default:
				}
				return
			}
		}

		select {
		case t.messages <- data:
		case <-t.done:
			return
		default:
			t.logger.Warn("inbound buffer full, dropping frame")
		}
	}
}
