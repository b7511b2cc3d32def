package config

import (
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
socket: /tmp/ebbflood.sock
database: /tmp/ebbflood.db
tickInterval: 250ms

mqtt:
  broker: tcp://localhost:1883
  topicPrefix: greenhouse/tables

gpio:
  chip: gpiochip0
  inputs:
    - device: float-flood
      channel: 0
      line: 17
      activeLow: true
    - device: float-basin
      channel: 0
      line: 27
      poll: 1s
  outputs:
    - device: relays
      channel: 0
      line: 22
    - device: relays
      channel: 1
      line: 23
    - device: relays
      channel: 2
      line: 24

controllers:
  - id: 9b1c5a52-41f2-4f8e-9f3a-7c15f2a3d001
    name: Table 1
    schedule: "0 6 * * *"
    period: 1s
    floodSensor: {device: float-flood, channel: 0}
    basinSensor: {device: float-basin, channel: 0}
    maxMeasurementAge: 30s
    pump: {device: relays, channel: 0}
    valve1: {device: relays, channel: 1}
    valve2: {device: relays, channel: 2}
    maxOnTime: 2m
    maxFloodingTime: 110s
    floodingOvershoot: 5s
    maxDrainingTime: 60s
    valveCleaningTime: 30s
`

func TestParseSampleConfig(t *testing.T) {
	conf, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if conf.Socket != "/tmp/ebbflood.sock" {
		t.Errorf("socket = %q", conf.Socket)
	}
	if conf.TickInterval.Duration != 250*time.Millisecond {
		t.Errorf("tickInterval = %v", conf.TickInterval.Duration)
	}
	if !conf.MQTT.Enabled() {
		t.Error("mqtt should be enabled")
	}

	if len(conf.Controllers) != 1 {
		t.Fatalf("controllers = %d", len(conf.Controllers))
	}
	cc := conf.Controllers[0].ControllerConfig()
	if cc.MaxOnTime != 2*time.Minute {
		t.Errorf("maxOnTime = %v", cc.MaxOnTime)
	}
	if cc.FloodSensor.Device != "float-flood" {
		t.Errorf("floodSensor = %v", cc.FloodSensor)
	}
	if cc.Valve2.Channel != 2 {
		t.Errorf("valve2 = %v", cc.Valve2)
	}

	// The 500ms poll default applies only where the file is silent.
	if got := conf.GPIO.Inputs[0].Poll.Duration; got != 500*time.Millisecond {
		t.Errorf("default poll = %v", got)
	}
	if got := conf.GPIO.Inputs[1].Poll.Duration; got != time.Second {
		t.Errorf("explicit poll = %v", got)
	}
}

func TestDefaults(t *testing.T) {
	conf, err := Parse([]byte("controllers: []\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if conf.Socket != defaultSocket {
		t.Errorf("socket = %q", conf.Socket)
	}
	if conf.TickInterval.Duration != defaultTickInterval {
		t.Errorf("tickInterval = %v", conf.TickInterval.Duration)
	}
	if conf.GPIO.Chip != defaultGPIOChip {
		t.Errorf("chip = %q", conf.GPIO.Chip)
	}
	if conf.SampleRetention.Duration != defaultSampleRetention {
		t.Errorf("sampleRetention = %v", conf.SampleRetention.Duration)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte("sokcet: /tmp/x.sock\n"))
	if err == nil {
		t.Fatal("misspelled key accepted")
	}
}

func TestBadDurationRejected(t *testing.T) {
	_, err := Parse([]byte("tickInterval: fast\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("err = %v", err)
	}
}

func TestDuplicateControllerIDRejected(t *testing.T) {
	doc := `
controllers:
  - id: 9b1c5a52-41f2-4f8e-9f3a-7c15f2a3d001
    period: 1s
    floodSensor: {device: f, channel: 0}
    maxMeasurementAge: 30s
    pump: {device: r, channel: 0}
    maxOnTime: 2m
    maxFloodingTime: 110s
    floodingOvershoot: 5s
    maxDrainingTime: 60s
    valveCleaningTime: 30s
  - id: 9b1c5a52-41f2-4f8e-9f3a-7c15f2a3d001
    period: 1s
    floodSensor: {device: f, channel: 0}
    maxMeasurementAge: 30s
    pump: {device: r, channel: 0}
    maxOnTime: 2m
    maxFloodingTime: 110s
    floodingOvershoot: 5s
    maxDrainingTime: 60s
    valveCleaningTime: 30s
`
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "duplicate controller id") {
		t.Fatalf("err = %v", err)
	}
}

func TestConflictingGPIOLinesRejected(t *testing.T) {
	doc := `
gpio:
  inputs:
    - {device: float-flood, channel: 0, line: 17}
  outputs:
    - {device: relays, channel: 0, line: 17}
`
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "line 17") {
		t.Fatalf("err = %v", err)
	}
}

func TestInvalidControllerRejected(t *testing.T) {
	doc := `
controllers:
  - id: not-a-uuid
    period: 1s
    floodSensor: {device: f, channel: 0}
    maxMeasurementAge: 30s
    pump: {device: r, channel: 0}
    maxOnTime: 2m
    maxFloodingTime: 110s
    floodingOvershoot: 5s
    maxDrainingTime: 60s
    valveCleaningTime: 30s
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("invalid controller id accepted")
	}
}
