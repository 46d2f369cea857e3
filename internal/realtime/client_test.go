package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       100,
	}
}

func TestTransport_Connect(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr := NewTransport(testClientConfig(), nil)

	if err := tr.Connect(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !tr.IsOpen() {
		t.Error("expected IsOpen to return true")
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if tr.IsOpen() {
		t.Error("expected IsOpen to return false after Close")
	}
}

func TestTransport_Send(t *testing.T) {
	var received []byte
	var mu sync.Mutex

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	tr := NewTransport(testClientConfig(), nil)
	if err := tr.Connect(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	testMsg := []byte(`{"type":"ping"}`)
	if err := tr.Send(testMsg); err != nil {
		t.Errorf("Send failed: %v", err)
	}

	// Wait for the server to receive the frame
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if string(received) != string(testMsg) {
		t.Errorf("received %q, want %q", received, testMsg)
	}
}

func TestTransport_MessagesInOrder(t *testing.T) {
	testMessages := []string{
		`{"type":"order.created","payload":{"orderId":"o-1"}}`,
		`{"type":"order.updated","payload":{"orderId":"o-1"}}`,
		`{"type":"order.completed","payload":{"orderId":"o-1"}}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, msg := range testMessages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Keep connection open
		time.Sleep(time.Second)
	})
	defer server.Close()

	tr := NewTransport(testClientConfig(), nil)
	if err := tr.Connect(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	var received []string
	timeout := time.After(2 * time.Second)

	for i := 0; i < len(testMessages); i++ {
		select {
		case msg := <-tr.Messages():
			received = append(received, string(msg))
		case <-timeout:
			t.Fatalf("timeout waiting for messages, received %d of %d", len(received), len(testMessages))
		}
	}

	for i, want := range testMessages {
		if received[i] != want {
			t.Errorf("message %d: got %q, want %q", i, received[i], want)
		}
	}
}

func TestTransport_MessagesClosedAfterServerDrop(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Drop the connection immediately.
	})
	defer server.Close()

	tr := NewTransport(testClientConfig(), nil)
	if err := tr.Connect(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	// The read loop must surface the drop either as an error or by closing
	// the message channel, so the manager can react.
	select {
	case err := <-tr.Errors():
		if err == nil {
			t.Error("expected a non-nil connection error")
		}
	case _, ok := <-tr.Messages():
		if ok {
			t.Error("expected message channel to close, got a frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for connection drop to surface")
	}
}

func TestTransport_SendNotConnected(t *testing.T) {
	tr := NewTransport(testClientConfig(), nil)
	if err := tr.Send([]byte("test")); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestTransport_ConnectAfterClose(t *testing.T) {
	tr := NewTransport(testClientConfig(), nil)
	tr.Close()
	if err := tr.Connect(context.Background(), "ws://localhost:12345"); err != ErrAlreadyClosed {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestTransport_DoubleClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	tr := NewTransport(testClientConfig(), nil)
	if err := tr.Connect(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestTransport_PingHandler(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		if err := conn.WriteControl(websocket.PingMessage, []byte("heartbeat"), time.Now().Add(time.Second)); err != nil {
			t.Logf("ping error: %v", err)
			return
		}
		time.Sleep(500 * time.Millisecond)
	})
	defer server.Close()

	tr := NewTransport(testClientConfig(), nil)
	if err := tr.Connect(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	// Give time for the ping to be answered.
	time.Sleep(200 * time.Millisecond)

	if !tr.IsOpen() {
		t.Error("expected transport to stay open after a protocol ping")
	}
}

func TestDefaultConfigs(t *testing.T) {
	clientCfg := DefaultClientConfig()
	if clientCfg.HandshakeTimeout != 10*time.Second {
		t.Errorf("HandshakeTimeout = %v, want 10s", clientCfg.HandshakeTimeout)
	}
	if clientCfg.BufferSize != 1000 {
		t.Errorf("BufferSize = %d, want 1000", clientCfg.BufferSize)
	}

	mgrCfg := DefaultManagerConfig()
	if mgrCfg.ReconnectBaseDelay != time.Second {
		t.Errorf("ReconnectBaseDelay = %v, want 1s", mgrCfg.ReconnectBaseDelay)
	}
	if mgrCfg.ReconnectMaxDelay != 30*time.Second {
		t.Errorf("ReconnectMaxDelay = %v, want 30s", mgrCfg.ReconnectMaxDelay)
	}
	if mgrCfg.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want 5", mgrCfg.MaxReconnectAttempts)
	}
}
