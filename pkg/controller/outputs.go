package controller

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Actuators wraps the pump and the optional valves of one controller.
// Every activation carries the configured max-on-time ceiling so the
// output hardware shuts itself off even if this process dies mid-cycle.
// Calls against an unconfigured valve succeed as no-ops.
type Actuators struct {
	driver OutputDriver
	log    logrus.FieldLogger

	pump   Output
	valve1 Output
	valve2 Output
	maxOn  time.Duration
}

func NewActuators(driver OutputDriver, cfg Config, log logrus.FieldLogger) *Actuators {
	return &Actuators{
		driver: driver,
		log:    log,
		pump:   cfg.Pump,
		valve1: cfg.Valve1,
		valve2: cfg.Valve2,
		maxOn:  cfg.MaxOnTime,
	}
}

func (a *Actuators) PumpOn() error {
	a.log.WithField("output", a.pump.String()).Debug("pump on")
	return a.driver.TurnOn(a.pump.Device, a.pump.Channel, a.maxOn)
}

// PumpState reads the pump channel back from the driver.
func (a *Actuators) PumpState() Level {
	state, err := a.driver.State(a.pump.Device, a.pump.Channel)
	if err != nil {
		a.log.WithField("output", a.pump.String()).Warnf("could not read pump state: %v", err)
		return LevelUnknown
	}
	return state
}

// ValveOn energizes valve 1 or 2. Unconfigured valves are a no-op.
func (a *Actuators) ValveOn(n int) error {
	v := a.valve(n)
	if v.IsZero() {
		return nil
	}
	a.log.WithField("output", v.String()).Debugf("valve %d on", n)
	return a.driver.TurnOn(v.Device, v.Channel, a.maxOn)
}

// ValveOff de-energizes valve 1 or 2. Unconfigured valves are a no-op.
func (a *Actuators) ValveOff(n int) error {
	v := a.valve(n)
	if v.IsZero() {
		return nil
	}
	a.log.WithField("output", v.String()).Debugf("valve %d off", n)
	return a.driver.TurnOff(v.Device, v.Channel)
}

// AllOff turns off the pump, then valve 1, then valve 2, regardless of
// prior state. Idempotent; used on every terminal, error, and shutdown
// path. Individual failures are logged and do not stop the remaining
// outputs from being switched off.
func (a *Actuators) AllOff() {
	a.log.Debug("turning all outputs off")
	if err := a.driver.TurnOff(a.pump.Device, a.pump.Channel); err != nil {
		a.log.WithField("output", a.pump.String()).Errorf("failed to turn off pump: %v", err)
	}
	for n := 1; n <= 2; n++ {
		v := a.valve(n)
		if v.IsZero() {
			continue
		}
		if err := a.driver.TurnOff(v.Device, v.Channel); err != nil {
			a.log.WithField("output", v.String()).Errorf("failed to turn off valve %d: %v", n, err)
		}
	}
}

func (a *Actuators) valve(n int) Output {
	if n == 1 {
		return a.valve1
	}
	return a.valve2
}
