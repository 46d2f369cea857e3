package cache

import (
	"sort"
	"testing"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Get("orders"); ok {
		t.Error("Get on empty store should report absent")
	}

	m.Set("orders", []string{"o1"})
	v, ok := m.Get("orders")
	if !ok {
		t.Fatal("Get after Set should report present")
	}
	if got := v.([]string); len(got) != 1 || got[0] != "o1" {
		t.Errorf("Get = %v, want [o1]", got)
	}
}

func TestMemory_Update(t *testing.T) {
	m := NewMemory()

	// fn receives nil when the key is absent.
	m.Update("count", func(current any) any {
		if current != nil {
			t.Errorf("current = %v, want nil", current)
		}
		return 1
	})
	m.Update("count", func(current any) any {
		return current.(int) + 1
	})

	v, _ := m.Get("count")
	if v.(int) != 2 {
		t.Errorf("count = %v, want 2", v)
	}
}

func TestMemory_DeleteExactKey(t *testing.T) {
	m := NewMemory()
	m.Set("order:o1", 1)
	m.Set("order:o12", 2)

	var notified []string
	m.Subscribe("order", func(key string) {
		notified = append(notified, key)
	})

	m.Delete("order:o1")

	if _, ok := m.Get("order:o1"); ok {
		t.Error("order:o1 should be deleted")
	}
	if _, ok := m.Get("order:o12"); !ok {
		t.Error("order:o12 should survive; Delete must not match by prefix")
	}
	if len(notified) != 1 || notified[0] != "order:o1" {
		t.Errorf("notifications = %v, want exactly [order:o1]", notified)
	}

	// Deleting an absent key is a silent no-op.
	m.Delete("order:o1")
	if len(notified) != 1 {
		t.Errorf("notifications = %v, want no notification for absent key", notified)
	}
}

func TestMemory_InvalidatePrefix(t *testing.T) {
	m := NewMemory()
	m.Set("order:o1", 1)
	m.Set("order:o2", 2)
	m.Set("orders", 3)
	m.Set("driver:d1", 4)

	m.Invalidate("order")

	if _, ok := m.Get("order:o1"); ok {
		t.Error("order:o1 should be invalidated")
	}
	if _, ok := m.Get("orders"); ok {
		t.Error("orders should be invalidated (prefix match)")
	}
	if _, ok := m.Get("driver:d1"); !ok {
		t.Error("driver:d1 should survive")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestMemory_SubscribeNotifications(t *testing.T) {
	m := NewMemory()

	var keys []string
	unsub := m.Subscribe("order", func(key string) {
		keys = append(keys, key)
	})

	m.Set("order:o1", 1)
	m.Update("order:o1", func(any) any { return 2 })
	m.Set("driver:d1", 3) // different prefix, not observed
	m.Invalidate("order:o1")

	sort.Strings(keys)
	if len(keys) != 3 {
		t.Fatalf("notifications = %v, want 3 for order:o1", keys)
	}
	for _, k := range keys {
		if k != "order:o1" {
			t.Errorf("notified key = %q, want order:o1", k)
		}
	}

	unsub()
	m.Set("order:o2", 4)
	if len(keys) != 3 {
		t.Error("watcher received notification after unsubscribe")
	}
}
