package controller

import (
	"errors"
	"testing"
	"time"
)

func newTestReader() (*SensorReader, *fakeStore, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := newFakeStore(clk)
	r := NewSensorReader(store, 3*time.Second, quietLogger())
	r.now = clk.Now
	return r, store, clk
}

func TestReadLevelMapping(t *testing.T) {
	r, store, _ := newTestReader()
	src := Source{Device: "float", Channel: 0}

	store.set("float", 0, 0)
	if lvl, err := r.ReadLevel(src); err != nil || lvl != LevelOff {
		t.Fatalf("expected off, got %s (err %v)", lvl, err)
	}

	store.set("float", 0, 1)
	if lvl, err := r.ReadLevel(src); err != nil || lvl != LevelOn {
		t.Fatalf("expected on, got %s (err %v)", lvl, err)
	}
}

func TestReadLevelUnavailable(t *testing.T) {
	r, store, _ := newTestReader()
	src := Source{Device: "float", Channel: 0}

	store.unset("float", 0)
	lvl, err := r.ReadLevel(src)
	if err != nil {
		t.Fatalf("missing sample must not be a reader error, got %v", err)
	}
	if lvl != LevelUnknown {
		t.Fatalf("expected unknown for missing sample, got %s", lvl)
	}
}

func TestReadLevelInvalidValue(t *testing.T) {
	r, store, _ := newTestReader()
	src := Source{Device: "float", Channel: 0}

	store.set("float", 0, 2.5)
	lvl, err := r.ReadLevel(src)
	if !errors.Is(err, ErrInvalidReading) {
		t.Fatalf("expected ErrInvalidReading, got %v", err)
	}
	if lvl != LevelUnknown {
		t.Fatalf("expected unknown level with invalid value, got %s", lvl)
	}
}

func TestForceRemeasureRateLimit(t *testing.T) {
	r, store, clk := newTestReader()
	src := Source{Device: "float", Channel: 0}
	store.set("float", 0, 0)

	r.ReadLevel(src)
	r.ReadLevel(src)
	if got := len(store.forced); got != 1 {
		t.Fatalf("expected one forced remeasure within a second, got %d", got)
	}

	clk.advance(time.Second)
	r.ReadLevel(src)
	if got := len(store.forced); got != 2 {
		t.Fatalf("expected a second forced remeasure after the limit window, got %d", got)
	}

	// The limiter is per device, not global.
	store.set("other", 0, 0)
	r.ReadLevel(Source{Device: "other", Channel: 0})
	if got := len(store.forced); got != 3 {
		t.Fatalf("expected a forced remeasure for a different device, got %d", got)
	}
}
