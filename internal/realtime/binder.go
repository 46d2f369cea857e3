package realtime

import (
	"log/slog"

	"github.com/rideops/fleetsync/internal/auth"
)

// Binder wires the connection manager to the session source: a transition
// to authenticated connects, a transition away disconnects. It also exposes
// the connection status surface to the rest of the application.
type Binder struct {
	mgr     *Manager
	session auth.Source
	logger  *slog.Logger

	unsub func()
}

// NewBinder creates a binder. Call Start to begin observing the session.
func NewBinder(mgr *Manager, session auth.Source, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{mgr: mgr, session: session, logger: logger}
}

// Start connects if the session is already authenticated and subscribes to
// session transitions.
func (b *Binder) Start() {
	b.unsub = b.session.Subscribe(func(st auth.State) {
		if st.Authenticated {
			b.logger.Info("session authenticated, connecting")
			b.mgr.Connect()
		} else {
			b.logger.Info("session ended, disconnecting")
			b.mgr.Disconnect()
		}
	})

	if b.session.State().Authenticated {
		b.mgr.Connect()
	}
}

// Stop unsubscribes from the session and disconnects.
func (b *Binder) Stop() {
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	b.mgr.Disconnect()
}

// Status returns the current connection status.
func (b *Binder) Status() Status {
	return b.mgr.Status()
}

// OnStatusChange registers a status observer on the underlying manager.
func (b *Binder) OnStatusChange(fn func(Status)) func() {
	return b.mgr.OnStatusChange(fn)
}
