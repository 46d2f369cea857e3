package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/rideops/fleetsync/internal/auth"
	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/notify"
)

// Manager owns the single realtime connection: it maintains the status
// state machine, retries interrupted connections with exponential backoff,
// routes inbound frames to the subscription registry, and accepts outbound
// sends.
//
// Public entry points never return errors for transport conditions; failures
// are expressed through status transitions and logged diagnostics. Outbound
// messages while disconnected are dropped, not queued, so delivery is at
// most once; inbound events missed during a disconnect are never replayed.
type Manager struct {
	cfg      ManagerConfig
	session  auth.Source
	registry *bus.Registry
	notifier notify.Sink
	logger   *slog.Logger
	sched    Scheduler
	dial     DialFunc

	mu             sync.Mutex
	status         Status
	transport      Transport
	gen            int // bumped on every connect/disconnect, stales old read loops
	attempts       int
	retryTimer     Timer
	connectedSince time.Time
	connectionID   string
	everConnected  bool

	obsMu     sync.Mutex
	observers map[int]func(Status)
	nextObsID int

	tapMu sync.RWMutex
	tap   func(bus.Event)
}

// Option customizes a Manager.
type Option func(*Manager)

// WithScheduler overrides the reconnect timer scheduler.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// WithDialer overrides the transport constructor.
func WithDialer(d DialFunc) Option {
	return func(m *Manager) { m.dial = d }
}

// NewManager creates a connection manager. It does not connect; call
// Connect, or bind it to the session via a Binder.
func NewManager(cfg ManagerConfig, session auth.Source, registry *bus.Registry, notifier notify.Sink, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfg:       cfg,
		session:   session,
		registry:  registry,
		notifier:  notifier,
		logger:    logger,
		sched:     SystemScheduler,
		dial:      NewTransport,
		status:    StatusDisconnected,
		observers: make(map[int]func(Status)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect establishes the connection. No-op when already open. An absent
// session token is not an error: it is the expected pre-authentication
// state, so Connect logs and returns.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.transport != nil && m.transport.IsOpen() {
		m.mu.Unlock()
		return
	}

	st := m.session.State()
	if !st.Authenticated || st.Token == "" {
		m.mu.Unlock()
		m.logger.Debug("no session token, skipping connect")
		return
	}

	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}

	m.gen++
	gen := m.gen
	t := m.dial(ClientConfig{
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
		BufferSize:       m.cfg.MessageBufferSize,
	}, m.logger)
	m.transport = t
	m.status = StatusConnecting
	m.mu.Unlock()

	m.notifyStatus(StatusConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.HandshakeTimeout)
	defer cancel()

	if err := t.Connect(ctx, m.endpoint(st.Token)); err != nil {
		m.logger.Warn("connect failed", "error", err)
		m.transportDown(gen)
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		// Disconnect raced the dial; drop the fresh connection.
		m.mu.Unlock()
		t.Close()
		return
	}
	m.attempts = 0
	m.connectedSince = time.Now()
	m.connectionID = fmt.Sprintf("conn-%d", m.connectedSince.UnixMilli())
	m.status = StatusConnected
	m.everConnected = true
	m.mu.Unlock()

	m.notifyStatus(StatusConnected)
	m.notifier.Notify(notify.New(notify.LevelInfo, "realtime connection established"))
	m.logger.Info("connected", "connection_id", m.ConnectionID())

	go m.readLoop(t, gen)
	go m.keepaliveLoop(gen)
}

// Disconnect cancels any pending reconnect, closes the transport, and sets
// the status to disconnected. Idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}
	changed := m.status != StatusDisconnected
	m.status = StatusDisconnected
	m.connectedSince = time.Time{}
	m.connectionID = ""
	m.mu.Unlock()

	if changed {
		m.notifyStatus(StatusDisconnected)
	}
}

// Reconnect forces a fresh connection cycle, resetting the retry budget.
// This is the manual escape hatch from the exhausted-retry state.
func (m *Manager) Reconnect() {
	m.Disconnect()
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()
	m.Connect()
}

// Send serializes {type, payload} and transmits it. While disconnected the
// message is logged and dropped: there is no outbound queue, so delivery is
// at most once.
func (m *Manager) Send(eventType string, payload any) {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()

	if t == nil || !t.IsOpen() {
		m.logger.Debug("dropping outbound message while disconnected", "type", eventType)
		return
	}

	data, err := json.Marshal(outboundFrame{Type: eventType, Payload: payload})
	if err != nil {
		m.logger.Warn("failed to encode outbound message", "type", eventType, "error", err)
		return
	}
	if err := t.Send(data); err != nil {
		m.logger.Warn("send failed", "type", eventType, "error", err)
	}
}

// Invoke sends a message named method and resolves immediately with a nil
// result. No request/response correlation is implemented; the return value
// never reflects a server acknowledgment. Known limitation kept for
// compatibility with callers expecting a call-style API.
func (m *Manager) Invoke(method string, payload any) (json.RawMessage, error) {
	m.Send(method, payload)
	return nil, nil
}

// On registers fn for eventType on the subscription registry and returns an
// unsubscribe function.
func (m *Manager) On(eventType string, fn bus.HandlerFunc) func() {
	return m.registry.Subscribe(eventType, fn)
}

// Subscribe is an alias for On.
func (m *Manager) Subscribe(eventType string, fn bus.HandlerFunc) func() {
	return m.On(eventType, fn)
}

// OnStatusChange registers a status observer, called synchronously on every
// transition. Returns an unsubscribe function.
func (m *Manager) OnStatusChange(fn func(Status)) func() {
	m.obsMu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// ConnectionID returns an opaque identifier for the current connection,
// empty while disconnected. For display purposes only.
func (m *Manager) ConnectionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectionID
}

// ConnectedSince returns when the current connection was established, zero
// while disconnected.
func (m *Manager) ConnectedSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectedSince
}

// SetEventTap installs fn to observe every dispatched event, after fan-out.
// Used by the event archiver. Pass nil to remove.
func (m *Manager) SetEventTap(fn func(bus.Event)) {
	m.tapMu.Lock()
	m.tap = fn
	m.tapMu.Unlock()
}

// endpoint builds the connection URL with the credential embedded as a
// query parameter.
func (m *Manager) endpoint(token string) string {
	return m.cfg.URL + "?token=" + url.QueryEscape(token)
}

// readLoop consumes frames from one transport until it drops. Frames are
// processed strictly in arrival order.
func (m *Manager) readLoop(t Transport, gen int) {
	for {
		select {
		case data, ok := <-t.Messages():
			if !ok {
				m.transportDown(gen)
				return
			}
			m.handleFrame(data)
		case err := <-t.Errors():
			m.logger.Warn("connection error", "error", err)
			m.transportDown(gen)
			return
		}
	}
}

// keepaliveLoop sends application-level pings while the connection is live.
// The server answers with "pong" frames, which the frame handler swallows.
// A non-positive interval disables keepalives.
func (m *Manager) keepaliveLoop(gen int) {
	if m.cfg.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		live := gen == m.gen
		m.mu.Unlock()
		if !live {
			return
		}
		m.Send(framePing, nil)
	}
}

// handleFrame parses one inbound frame and dispatches it. Malformed frames
// are logged and dropped; they never abort the connection.
func (m *Manager) handleFrame(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		m.logger.Warn("malformed frame dropped", "error", err)
		return
	}
	if env.Type == "" {
		m.logger.Warn("frame without type dropped")
		return
	}

	switch env.Type {
	case frameConnected:
		m.logger.Debug("handshake acknowledged")
		return
	case framePong:
		return
	}

	evt := bus.Event{
		Type:       env.Type,
		Payload:    env.Payload,
		Timestamp:  env.Timestamp,
		ReceivedAt: time.Now(),
	}
	m.registry.Emit(evt)

	m.tapMu.RLock()
	tap := m.tap
	m.tapMu.RUnlock()
	if tap != nil {
		tap(evt)
	}
}

// transportDown handles an involuntary connection loss: it transitions to
// disconnected and schedules a single reconnect attempt, or surfaces the
// terminal failure once the retry budget is exhausted.
func (m *Manager) transportDown(gen int) {
	m.mu.Lock()
	if gen != m.gen {
		// A newer connect or an explicit disconnect superseded this
		// transport; nothing to do.
		m.mu.Unlock()
		return
	}
	m.gen++
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}
	m.connectedSince = time.Time{}
	m.connectionID = ""

	wasConnected := m.everConnected
	m.status = StatusDisconnected
	transitions := []Status{StatusDisconnected}

	exhausted := m.attempts >= m.cfg.MaxReconnectAttempts
	var delay time.Duration
	if !exhausted {
		m.attempts++
		delay = backoffDelay(m.cfg.ReconnectBaseDelay, m.cfg.ReconnectMaxDelay, m.attempts)
		m.status = StatusReconnecting
		transitions = append(transitions, StatusReconnecting)
		m.retryTimer = m.sched.AfterFunc(delay, m.Connect)
	}
	attempt := m.attempts
	m.mu.Unlock()

	for _, s := range transitions {
		m.notifyStatus(s)
	}

	if exhausted {
		m.logger.Error("reconnect attempts exhausted", "attempts", attempt)
		n := notify.New(notify.LevelError, "realtime connection failed, live updates unavailable")
		n.Sticky = true
		m.notifier.Notify(n)
		return
	}

	m.logger.Warn("connection lost, reconnect scheduled",
		"attempt", attempt,
		"delay", delay,
	)
	if wasConnected {
		m.notifier.Notify(notify.New(notify.LevelWarning, "realtime connection lost, reconnecting"))
	}
}

// notifyStatus delivers a status transition to all current observers.
func (m *Manager) notifyStatus(s Status) {
	m.obsMu.Lock()
	fns := make([]func(Status), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.obsMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// backoffDelay computes min(base * 2^(attempt-1), max).
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
