package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDeviceRegistration(t *testing.T) {
	db := openTestDB(t)

	if db.HasDevice("float-flood") {
		t.Fatal("unregistered device reported as known")
	}
	if err := db.RegisterDevice("float-flood", "Flood table float switch"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !db.HasDevice("float-flood") {
		t.Fatal("registered device not found")
	}
	// Upsert must not error.
	if err := db.RegisterDevice("float-flood", "renamed"); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestLatestSample(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	db.now = func() time.Time { return now }

	if _, ok, err := db.Latest("float-flood", 0, time.Minute); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	if err := db.AppendSample("float-flood", 0, 0, now.Add(-30*time.Second)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := db.AppendSample("float-flood", 0, 1, now.Add(-2*time.Second)); err != nil {
		t.Fatalf("append: %v", err)
	}

	s, ok, err := db.Latest("float-flood", 0, time.Minute)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if s.Value != 1 {
		t.Fatalf("latest value = %v, want 1 (newest sample)", s.Value)
	}

	// The newest sample is 2s old, so a 1s staleness window hides it.
	if _, ok, _ := db.Latest("float-flood", 0, time.Second); ok {
		t.Fatal("stale sample returned within maxAge window")
	}
}

func TestStatisticsBatch(t *testing.T) {
	db := openTestDB(t)

	if _, ok, err := db.LatestStatistic("ctrl-1", 0); err != nil || ok {
		t.Fatalf("empty statistics: ok=%v err=%v", ok, err)
	}

	batch := map[int]float64{0: 3, 1: 1, 2: 105, 3: 0, 4: 40, 5: 0}
	if err := db.AppendStatistics("ctrl-1", batch); err != nil {
		t.Fatalf("append batch: %v", err)
	}
	// A later batch supersedes the first.
	if err := db.AppendStatistics("ctrl-1", map[int]float64{0: 4, 1: 1}); err != nil {
		t.Fatalf("append batch: %v", err)
	}

	v, ok, err := db.LatestStatistic("ctrl-1", 0)
	if err != nil || !ok {
		t.Fatalf("latest statistic: ok=%v err=%v", ok, err)
	}
	if v != 4 {
		t.Fatalf("flood count = %v, want 4", v)
	}

	// Channels from the first batch remain readable.
	v, ok, _ = db.LatestStatistic("ctrl-1", 4)
	if !ok || v != 40 {
		t.Fatalf("draining time = %v ok=%v, want 40", v, ok)
	}
}

func TestActivationFlag(t *testing.T) {
	db := openTestDB(t)

	on, err := db.Activated("ctrl-1")
	if err != nil {
		t.Fatalf("activated: %v", err)
	}
	if on {
		t.Fatal("unknown controller reported active")
	}

	if err := db.SetActivated("ctrl-1", "Ebb-flood table 1", true); err != nil {
		t.Fatalf("set activated: %v", err)
	}
	if on, _ = db.Activated("ctrl-1"); !on {
		t.Fatal("controller not active after SetActivated(true)")
	}

	if err := db.SetActivated("ctrl-1", "Ebb-flood table 1", false); err != nil {
		t.Fatalf("set deactivated: %v", err)
	}
	if on, _ = db.Activated("ctrl-1"); on {
		t.Fatal("controller still active after SetActivated(false)")
	}
}

func TestPruneSamples(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	for i := 0; i < 5; i++ {
		if err := db.AppendSample("float-flood", 0, 1, now.Add(-time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	n, err := db.PruneSamples(now.Add(-150 * time.Minute))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("pruned %d rows, want 2", n)
	}

	if _, ok, _ := db.Latest("float-flood", 0, 0); !ok {
		t.Fatal("recent samples lost after prune")
	}
}
