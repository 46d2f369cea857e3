package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/cache"
	"github.com/rideops/fleetsync/internal/model"
	"github.com/rideops/fleetsync/internal/notify"
	"github.com/rideops/fleetsync/internal/throttle"
)

// recordSink captures notices for assertions.
type recordSink struct {
	notices []notify.Notice
}

func (s *recordSink) Notify(n notify.Notice) {
	s.notices = append(s.notices, n)
}

func (s *recordSink) last(t *testing.T) notify.Notice {
	t.Helper()
	if len(s.notices) == 0 {
		t.Fatal("no notice emitted")
	}
	return s.notices[len(s.notices)-1]
}

func event(t *testing.T, eventType string, payload any) bus.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return bus.Event{
		Type:       eventType,
		Payload:    raw,
		Timestamp:  "2025-06-01T12:00:00Z",
		ReceivedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newGuard() *throttle.Guard {
	return throttle.NewGuard(time.Second, time.Minute, 1000)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func orders(t *testing.T, store cache.Store, key string) []model.Order {
	t.Helper()
	v, _ := store.Get(key)
	return listOf[model.Order](v)
}
