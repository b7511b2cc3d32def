package controller

import (
	"strconv"
	"time"
)

// Source references one boolean-like measurement channel on a device.
type Source struct {
	Device  string `json:"device" yaml:"device"`
	Channel int    `json:"channel" yaml:"channel"`
}

// IsZero reports whether the source is unconfigured.
func (s Source) IsZero() bool {
	return s.Device == ""
}

func (s Source) String() string {
	if s.IsZero() {
		return "<unset>"
	}
	return s.Device + "/" + strconv.Itoa(s.Channel)
}

// Output references one switchable channel on an output device.
type Output struct {
	Device  string `json:"device" yaml:"device"`
	Channel int    `json:"channel" yaml:"channel"`
}

func (o Output) IsZero() bool {
	return o.Device == ""
}

func (o Output) String() string {
	if o.IsZero() {
		return "<unset>"
	}
	return o.Device + "/" + strconv.Itoa(o.Channel)
}

// Sample is one raw measurement from the store.
type Sample struct {
	Time  time.Time
	Value float64
}

// MeasurementStore is the sample database the controller reads sensor
// values from and writes statistics batches to.
type MeasurementStore interface {
	// ForceRemeasure asks the upstream sampler for a fresh reading of
	// every channel on the device. Best effort.
	ForceRemeasure(deviceID string)

	// Latest returns the newest sample for the channel. ok is false when
	// no sample exists or the newest one is older than maxAge.
	Latest(deviceID string, channel int, maxAge time.Duration) (s Sample, ok bool, err error)

	// HasDevice reports whether the device is known to the store.
	HasDevice(deviceID string) bool

	// AppendStatistics writes the channel values as a single timestamped
	// batch attributed to the controller.
	AppendStatistics(controllerID string, batch map[int]float64) error

	// LatestStatistic returns the last persisted value for one of the
	// controller's own statistics channels, regardless of age.
	LatestStatistic(controllerID string, channel int) (v float64, ok bool, err error)
}

// OutputDriver switches and reads back actuator channels.
type OutputDriver interface {
	// TurnOn energizes the channel. maxOn is a hardware-level auto-off
	// ceiling: the driver must de-energize the channel after maxOn even
	// if the caller never turns it off.
	TurnOn(deviceID string, channel int, maxOn time.Duration) error
	TurnOff(deviceID string, channel int) error
	State(deviceID string, channel int) (Level, error)
}

// Deactivator is the host-side registry hook a controller uses to take
// itself out of service after a terminal phase. Implementations must be
// asynchronous (the tick path does not wait for completion), idempotent,
// and guaranteed to eventually run exactly once per request.
type Deactivator interface {
	Deactivate(controllerID string)
}

// EventSink receives controller lifecycle events. All methods are called
// synchronously from the tick path and must not block.
type EventSink interface {
	PhaseChanged(controllerID string, from, to Phase)
	StatisticsWritten(controllerID string, batch map[int]float64)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) PhaseChanged(string, Phase, Phase)         {}
func (NopSink) StatisticsWritten(string, map[int]float64) {}
