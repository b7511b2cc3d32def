package controller

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		ID:                testControllerID,
		Name:              "tray-1",
		Period:            time.Second,
		FloodSensor:       Source{Device: "float-flood", Channel: 0},
		MaxMeasurementAge: 3 * time.Second,
		Pump:              Output{Device: "relays", Channel: 0},
		MaxOnTime:         120 * time.Second,
		MaxFloodingTime:   110 * time.Second,
		FloodingOvershoot: 5 * time.Second,
		MaxDrainingTime:   60 * time.Second,
		ValveCleaningTime: 30 * time.Second,
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"bad id", func(c *Config) { c.ID = "not-a-uuid" }, "UUID"},
		{"zero period", func(c *Config) { c.Period = 0 }, "period"},
		{"no flood sensor", func(c *Config) { c.FloodSensor = Source{} }, "flood sensor"},
		{"no pump", func(c *Config) { c.Pump = Output{} }, "pump"},
		{"zero max age", func(c *Config) { c.MaxMeasurementAge = 0 }, "measurement_max_age"},
		{"zero max on time", func(c *Config) { c.MaxOnTime = 0 }, "output_max_on_time"},
		{"overshoot too large", func(c *Config) { c.FloodingOvershoot = c.MaxFloodingTime }, "flooding_overshoot"},
	}

	for _, tc := range cases {
		cfg := validConfig()
		tc.mod(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestValvesAreOptional(t *testing.T) {
	cfg := validConfig()
	cfg.Valve1 = Output{}
	cfg.Valve2 = Output{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valves must be optional: %v", err)
	}
}
