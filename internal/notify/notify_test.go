package notify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	n := New(LevelWarning, "driver d-1 is now offline")

	if n.ID == "" {
		t.Error("ID should be assigned")
	}
	if n.Level != LevelWarning {
		t.Errorf("Level = %v, want warning", n.Level)
	}
	if n.Sound || n.Sticky {
		t.Error("Sound and Sticky default to false")
	}

	if other := New(LevelInfo, "x"); other.ID == n.ID {
		t.Error("each notice gets a fresh ID")
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelInfo:    "info",
		LevelSuccess: "success",
		LevelWarning: "warning",
		LevelError:   "error",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestLogSink_LevelMapping(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	sink.Notify(New(LevelError, "connection failed"))
	if out := buf.String(); !strings.Contains(out, "level=ERROR") {
		t.Errorf("error notice logged as %q", out)
	}

	buf.Reset()
	sink.Notify(New(LevelWarning, "connection lost"))
	if out := buf.String(); !strings.Contains(out, "level=WARN") {
		t.Errorf("warning notice logged as %q", out)
	}

	buf.Reset()
	sink.Notify(New(LevelSuccess, "order completed"))
	if out := buf.String(); !strings.Contains(out, "level=INFO") {
		t.Errorf("success notice logged as %q", out)
	}
}
