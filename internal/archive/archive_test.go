package archive

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rideops/fleetsync/internal/bus"
)

func TestArchiver_RecordBuildsRow(t *testing.T) {
	a := NewArchiver(Config{BatchSize: 10, FlushInterval: time.Hour, BufferSize: 10}, nil, nil)

	receivedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.Record(bus.Event{
		Type:       "order.created",
		Payload:    []byte(`{"orderId":"o-1"}`),
		Timestamp:  "2025-06-01T12:00:00Z",
		ReceivedAt: receivedAt,
	})

	select {
	case row := <-a.input:
		if row.EventType != "order.created" {
			t.Errorf("EventType = %s, want order.created", row.EventType)
		}
		if string(row.Payload) != `{"orderId":"o-1"}` {
			t.Errorf("Payload = %s", row.Payload)
		}
		if row.EventTS != "2025-06-01T12:00:00Z" {
			t.Errorf("EventTS = %s", row.EventTS)
		}
		if row.ReceivedAt != receivedAt.UnixMicro() {
			t.Errorf("ReceivedAt = %d, want %d", row.ReceivedAt, receivedAt.UnixMicro())
		}
		if row.EventID == uuid.Nil {
			t.Error("EventID should be assigned")
		}
	default:
		t.Fatal("Record did not enqueue a row")
	}
}

func TestArchiver_RecordDropsWhenFull(t *testing.T) {
	a := NewArchiver(Config{BatchSize: 10, FlushInterval: time.Hour, BufferSize: 2}, nil, nil)

	evt := bus.Event{Type: "driver.location.updated", ReceivedAt: time.Now()}
	for i := 0; i < 5; i++ {
		a.Record(evt)
	}

	stats := a.Stats()
	if stats.Recorded != 2 {
		t.Errorf("Recorded = %d, want 2", stats.Recorded)
	}
	if stats.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3", stats.Dropped)
	}
}

// Rows still sitting in the input channel when the consume loop exits must
// reach the final batch instead of being dropped.
func TestArchiver_DrainPendingMovesBufferedRows(t *testing.T) {
	a := NewArchiver(Config{BatchSize: 10, FlushInterval: time.Hour, BufferSize: 10}, nil, nil)

	evt := bus.Event{Type: "order.created", ReceivedAt: time.Now()}
	for i := 0; i < 3; i++ {
		a.Record(evt)
	}

	a.drainPending()

	a.batchMu.Lock()
	got := len(a.batch)
	a.batchMu.Unlock()
	if got != 3 {
		t.Errorf("batch length = %d, want 3", got)
	}
	if len(a.input) != 0 {
		t.Errorf("input channel length = %d, want 0 after drain", len(a.input))
	}
}

func TestArchiver_Lifecycle(t *testing.T) {
	// No database writes happen with an empty batch; this tests the
	// goroutine lifecycle only.
	a := NewArchiver(Config{BatchSize: 10, FlushInterval: 100 * time.Millisecond, BufferSize: 10}, nil, nil)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestArchiver_Stats(t *testing.T) {
	a := NewArchiver(Config{BatchSize: 10, FlushInterval: time.Hour, BufferSize: 10}, nil, nil)

	stats := a.Stats()
	if stats.Inserts != 0 || stats.Errors != 0 || stats.Flushes != 0 {
		t.Errorf("initial stats = %+v, want zeros", stats)
	}
}
