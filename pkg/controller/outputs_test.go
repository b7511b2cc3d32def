package controller

import (
	"testing"
	"time"
)

func testActuatorConfig() Config {
	return Config{
		Pump:      Output{Device: "relays", Channel: 0},
		Valve1:    Output{Device: "relays", Channel: 1},
		MaxOnTime: 90 * time.Second,
	}
}

func TestAllOffIsIdempotent(t *testing.T) {
	driver := newFakeDriver()
	acts := NewActuators(driver, testActuatorConfig(), quietLogger())

	if err := acts.PumpOn(); err != nil {
		t.Fatalf("PumpOn: %v", err)
	}
	if err := acts.ValveOn(1); err != nil {
		t.Fatalf("ValveOn: %v", err)
	}

	acts.AllOff()
	first := map[string]bool{}
	for k, v := range driver.on {
		first[k] = v
	}

	acts.AllOff()
	for k, v := range driver.on {
		if first[k] != v {
			t.Fatalf("second AllOff changed state of %s: %v -> %v", k, first[k], v)
		}
		if v {
			t.Fatalf("output %s still on after AllOff", k)
		}
	}
}

func TestUnconfiguredValveIsNoOp(t *testing.T) {
	driver := newFakeDriver()
	acts := NewActuators(driver, testActuatorConfig(), quietLogger())

	// Valve 2 is not configured; all calls must succeed without touching
	// the driver.
	if err := acts.ValveOn(2); err != nil {
		t.Fatalf("ValveOn on absent valve must succeed, got %v", err)
	}
	if err := acts.ValveOff(2); err != nil {
		t.Fatalf("ValveOff on absent valve must succeed, got %v", err)
	}
	if len(driver.history) != 0 {
		t.Fatalf("driver should not have been touched, history %v", driver.history)
	}
}

func TestEveryActivationCarriesCeiling(t *testing.T) {
	driver := newFakeDriver()
	acts := NewActuators(driver, testActuatorConfig(), quietLogger())

	if err := acts.PumpOn(); err != nil {
		t.Fatalf("PumpOn: %v", err)
	}
	if err := acts.ValveOn(1); err != nil {
		t.Fatalf("ValveOn: %v", err)
	}

	for _, k := range []string{"relays/0", "relays/1"} {
		if got := driver.maxOn[k]; got != 90*time.Second {
			t.Fatalf("output %s: expected max-on-time 90s, got %v", k, got)
		}
	}
}

func TestPumpStateReadBack(t *testing.T) {
	driver := newFakeDriver()
	acts := NewActuators(driver, testActuatorConfig(), quietLogger())

	if got := acts.PumpState(); got != LevelOff {
		t.Fatalf("expected off before activation, got %s", got)
	}
	if err := acts.PumpOn(); err != nil {
		t.Fatalf("PumpOn: %v", err)
	}
	if got := acts.PumpState(); got != LevelOn {
		t.Fatalf("expected on after activation, got %s", got)
	}
}
