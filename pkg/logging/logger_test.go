package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestOrNopHandlesNil(t *testing.T) {
	logger := OrNop(nil)
	logger.Log(Event{Level: LevelError, Message: "dropped"})

	var fn Func
	fn.Log(Event{})
}

func TestRecorderAtLeast(t *testing.T) {
	rec := &Recorder{}
	rec.Log(Event{Level: LevelDebug, Op: "a"})
	rec.Log(Event{Level: LevelWarn, Op: "b"})
	rec.Log(Event{Level: LevelError, Op: "c"})

	if got := len(rec.Events()); got != 3 {
		t.Fatalf("expected 3 events, got %d", got)
	}
	warn := rec.AtLeast(LevelWarn)
	if len(warn) != 2 || warn[0].Op != "b" || warn[1].Op != "c" {
		t.Fatalf("unexpected warn+ events: %+v", warn)
	}
	rec.Reset()
	if got := len(rec.Events()); got != 0 {
		t.Fatalf("expected reset recorder, got %d events", got)
	}
}

func TestSlogAdapterWritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := Slog(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Log(Event{
		Level:   LevelWarn,
		Op:      "autosave.write",
		Message: "could not save to autosave file",
		Path:    "/tmp/a.json",
		Err:     errors.New("disk full"),
	})

	out := buf.String()
	for _, want := range []string{"level=WARN", "op=autosave.write", "path=/tmp/a.json", "error=\"disk full\""} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output %q", want, out)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelError.String() != "error" || Level(42).String() != "unknown" {
		t.Fatalf("unexpected level names")
	}
}
