package controller

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config is the immutable per-run configuration of one controller.
type Config struct {
	// ID is the controller UUID. Statistics batches and activation state
	// are keyed by it.
	ID   string
	Name string

	// Period is the tick interval of the cycle timer.
	Period time.Duration

	// FloodSensor reports whether the growing tray is full of water.
	FloodSensor Source
	// BasinSensor reports whether the reservoir has enough water to begin
	// a cycle. Optional.
	BasinSensor Source
	// MaxMeasurementAge is the staleness threshold for sensor samples.
	MaxMeasurementAge time.Duration

	Pump   Output // required
	Valve1 Output // optional
	Valve2 Output // optional

	// MaxOnTime is the hardware auto-off ceiling passed to every actuator
	// activation.
	MaxOnTime time.Duration

	MaxFloodingTime   time.Duration
	FloodingOvershoot time.Duration
	MaxDrainingTime   time.Duration
	ValveCleaningTime time.Duration
}

// Validate checks the static invariants of the configuration. The
// starting phase re-checks the references it needs at runtime, so a
// controller built from an invalid config fails soft into the error
// phase rather than never existing.
func (c Config) Validate() error {
	if _, err := uuid.Parse(c.ID); err != nil {
		return fmt.Errorf("controller id %q is not a UUID: %w", c.ID, err)
	}
	if c.Period <= 0 {
		return fmt.Errorf("controller %s: period must be > 0, got %v", c.Name, c.Period)
	}
	if c.FloodSensor.IsZero() {
		return fmt.Errorf("controller %s: flood sensor is required", c.Name)
	}
	if c.Pump.IsZero() {
		return fmt.Errorf("controller %s: pump output is required", c.Name)
	}
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"measurement_max_age", c.MaxMeasurementAge},
		{"output_max_on_time", c.MaxOnTime},
		{"max_flooding_time", c.MaxFloodingTime},
		{"flooding_overshoot", c.FloodingOvershoot},
		{"max_draining_time", c.MaxDrainingTime},
		{"valve_cleaning_time", c.ValveCleaningTime},
	} {
		if d.v <= 0 {
			return fmt.Errorf("controller %s: %s must be > 0, got %v", c.Name, d.name, d.v)
		}
	}
	if c.FloodingOvershoot >= c.MaxFloodingTime {
		return fmt.Errorf("controller %s: flooding_overshoot (%v) must be less than max_flooding_time (%v)",
			c.Name, c.FloodingOvershoot, c.MaxFloodingTime)
	}
	return nil
}
