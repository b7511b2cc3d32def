// Package controller implements the ebb-flood irrigation sequencer: a
// polling-driven state machine that fills a growing tray with a pump,
// debounces the flood float switch, and waits for the tray to drain,
// enforcing safety timeouts and retry limits along the way.
package controller

import (
	"time"

	"github.com/sirupsen/logrus"
)

// maxStartRetries bounds consecutive failed attempts to leave the
// starting phase.
const maxStartRetries = 3

// Controller runs one irrigation cycle per activation. All run state is
// owned by the tick path: the host calls Tick from a single goroutine,
// and Shutdown only after the controller has been removed from the tick
// set, so no locking is needed.
type Controller struct {
	cfg    Config
	log    logrus.FieldLogger
	store  MeasurementStore
	reader *SensorReader
	acts   *Actuators
	deact  Deactivator
	events EventSink

	now      func() time.Time
	nextTick time.Time

	phase           Phase
	startRetries    int
	fillStartedAt   time.Time
	drainStartedAt  time.Time
	floodDetectedAt time.Time
	cleaningCounter int

	floodingTime time.Duration
	drainingTime time.Duration
	lowWaterTime time.Duration
	floodVolume  float64

	floodCount float64
	errorCount float64
}

// Option configures a Controller at construction.
type Option func(*Controller)

// WithClock replaces the wall clock. Tests drive phase timing with it.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithEvents attaches a lifecycle event sink.
func WithEvents(sink EventSink) Option {
	return func(c *Controller) { c.events = sink }
}

// WithLogger replaces the default logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = log }
}

// New builds a controller in the idle phase and seeds its cumulative
// counters from the last persisted statistics batch. The configuration
// is not validated here: a broken config fails soft into the error phase
// on the first due tick.
func New(cfg Config, store MeasurementStore, driver OutputDriver, deact Deactivator, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		log:    logrus.WithField("controller", cfg.Name),
		store:  store,
		deact:  deact,
		events: NopSink{},
		now:    time.Now,
		phase:  PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reader = NewSensorReader(store, cfg.MaxMeasurementAge, c.log)
	c.reader.now = c.now
	c.acts = NewActuators(driver, cfg, c.log)
	c.nextTick = c.now()
	c.seedCounters()
	return c
}

// Phase returns the current state-machine phase.
func (c *Controller) Phase() Phase { return c.phase }

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

// Status is a point-in-time snapshot for the daemon API.
type Status struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Phase        string  `json:"phase"`
	FloodCount   float64 `json:"floodCount"`
	ErrorCount   float64 `json:"errorCount"`
	FloodingTime float64 `json:"floodingTimeSeconds"`
	DrainingTime float64 `json:"drainingTimeSeconds"`
	LowWaterTime float64 `json:"lowWaterTimeSeconds"`
}

func (c *Controller) Status() Status {
	return Status{
		ID:           c.cfg.ID,
		Name:         c.cfg.Name,
		Phase:        c.phase.String(),
		FloodCount:   c.floodCount,
		ErrorCount:   c.errorCount,
		FloodingTime: c.floodingTime.Seconds(),
		DrainingTime: c.drainingTime.Seconds(),
		LowWaterTime: c.lowWaterTime.Seconds(),
	}
}

// Tick is the re-entrant cycle timer. The host calls it far more often
// than the configured period; calls before the next scheduled tick are
// no-ops. When a tick is due, the next-tick timestamp advances by whole
// period multiples so a long stall collapses into one catch-up tick, and
// exactly one state-machine step runs.
//
// Tick never propagates domain failures; those transition the machine to
// the error phase internally. The sole error it returns is
// ErrTickInErrorPhase, which indicates the controller was stepped after
// it should have been deactivated.
func (c *Controller) Tick() error {
	if c.cfg.Period <= 0 {
		// No valid period means the timer cannot gate; treat as a
		// configuration failure instead of ticking at call cadence.
		if c.phase == PhaseError {
			c.acts.AllOff()
			return ErrTickInErrorPhase
		}
		c.fail("tick period is not configured")
		return nil
	}

	now := c.now()
	if now.Before(c.nextTick) {
		return nil
	}
	for !c.nextTick.After(now) {
		c.nextTick = c.nextTick.Add(c.cfg.Period)
	}

	if c.phase == PhaseError {
		c.acts.AllOff()
		return ErrTickInErrorPhase
	}

	c.step(now)
	return nil
}

func (c *Controller) step(now time.Time) {
	c.log.WithField("phase", c.phase.String()).Trace("tick")

	switch c.phase {
	case PhaseIdle:
		c.startRetries = -1
		c.setPhase(PhaseStarting)
		c.onStarting(now)
	case PhaseStarting:
		c.onStarting(now)
	case PhaseFilling:
		c.onFilling(now)
	case PhaseDraining:
		c.onDraining(now)
	case PhaseDrained, PhaseShutdown:
		// Terminal; waiting for the host to stop ticking us.
	case PhaseFull:
		// Pseudo-transient, never observed across ticks.
	}
}

// onStarting validates configuration and sensors, then opens the water
// path. A transient flood or basin reading keeps the controller in
// starting for the next tick; the retry budget turns persistent holds
// into a failure.
func (c *Controller) onStarting(now time.Time) {
	c.floodingTime = 0
	c.lowWaterTime = 0

	c.startRetries++
	c.log.WithField("try", c.startRetries).Debug("starting")
	if c.startRetries > maxStartRetries {
		c.fail("too many attempts to start up, giving up")
		return
	}

	if c.cfg.MaxFloodingTime <= 0 || c.cfg.FloodingOvershoot <= 0 ||
		c.cfg.FloodingOvershoot >= c.cfg.MaxFloodingTime {
		c.fail("flooding timeouts are not set or inconsistent: max=%v overshoot=%v",
			c.cfg.MaxFloodingTime, c.cfg.FloodingOvershoot)
		return
	}
	if c.cfg.FloodSensor.IsZero() {
		c.fail("flood level measurement source is not configured")
		return
	}
	if c.cfg.Pump.IsZero() {
		c.fail("pump output is not configured")
		return
	}
	if !c.store.HasDevice(c.cfg.FloodSensor.Device) {
		c.fail("flood level measurement device %q not found", c.cfg.FloodSensor.Device)
		return
	}

	level, err := c.reader.ReadLevel(c.cfg.FloodSensor)
	if err != nil {
		c.fail("flood level read failed: %v", err)
		return
	}
	if level != LevelOff {
		// Tray already wet or sensor not ready. Not fatal: retry on the
		// next tick within the retry budget.
		c.log.WithField("level", level.String()).Warn("flood level is not off yet, trying again")
		return
	}

	if !c.cfg.BasinSensor.IsZero() {
		if !c.store.HasDevice(c.cfg.BasinSensor.Device) {
			c.fail("basin level measurement device %q not found", c.cfg.BasinSensor.Device)
			return
		}
		basin, err := c.reader.ReadLevel(c.cfg.BasinSensor)
		if err != nil {
			c.fail("basin level read failed: %v", err)
			return
		}
		// Unlike the flood-level check in filling, an unavailable basin
		// reading here just holds the start.
		if basin != LevelOff {
			c.log.WithField("level", basin.String()).Warn("basin level is not off yet, trying again")
			return
		}
	}

	if err := c.acts.PumpOn(); err != nil {
		c.fail("failed to turn on pump: %v", err)
		return
	}
	if err := c.acts.ValveOn(1); err != nil {
		c.log.Errorf("failed to open valve 1: %v", err)
	}
	if err := c.acts.ValveOn(2); err != nil {
		c.log.Errorf("failed to open valve 2: %v", err)
	}

	c.fillStartedAt = now
	c.floodDetectedAt = time.Time{}
	c.cleaningCounter = 1
	c.drainingTime = 0
	c.floodVolume = 0
	c.setPhase(PhaseFilling)
}

// onFilling watches the tray fill up. It re-validates the pump on every
// tick, runs the valve-cleaning sub-sequence during the first
// ValveCleaningTime seconds, latches the basin low-water timestamp, and
// debounces the flood switch with the overshoot dwell.
func (c *Controller) onFilling(now time.Time) {
	c.floodingTime = now.Sub(c.fillStartedAt)
	c.log.WithFields(logrus.Fields{
		"floodingTime": c.floodingTime,
	}).Debug("filling")

	if c.floodingTime > c.cfg.MaxFloodingTime {
		c.fail("filling took longer than %v, giving up", c.cfg.MaxFloodingTime)
		return
	}

	// Someone turning the pump off externally, or a failed read-back, is
	// interference, not a retryable condition.
	if state := c.acts.PumpState(); state != LevelOn {
		c.fail("pump is not reporting on (state %s), giving up", state)
		return
	}

	c.cleanValves()

	if !c.cfg.BasinSensor.IsZero() && c.lowWaterTime == 0 {
		basin, err := c.reader.ReadLevel(c.cfg.BasinSensor)
		if err != nil {
			c.fail("basin level read failed: %v", err)
			return
		}
		if basin == LevelOff {
			c.lowWaterTime = now.Sub(c.fillStartedAt)
			c.log.WithField("lowWaterTime", c.lowWaterTime).Debug("basin low water level detected")
		}
	}

	level, err := c.reader.ReadLevel(c.cfg.FloodSensor)
	if err != nil {
		c.fail("flood level read failed: %v", err)
		return
	}
	if level == LevelUnknown {
		c.fail("flood level unavailable while filling, giving up")
		return
	}
	if level == LevelOff {
		return
	}

	// First on reading latches the detection timestamp; a later bounce
	// back to off does not reset it.
	if c.floodDetectedAt.IsZero() {
		c.floodDetectedAt = now
		c.log.Debug("flood level detected, starting overshoot dwell")
	}
	if dwell := now.Sub(c.floodDetectedAt); dwell < c.cfg.FloodingOvershoot {
		c.log.WithFields(logrus.Fields{
			"dwell":     dwell,
			"overshoot": c.cfg.FloodingOvershoot,
		}).Debug("still in overshoot period")
		return
	}

	c.onFull(now)
}

// cleanValves toggles the drain valves during the first
// ValveCleaningTime seconds of a fill to dislodge debris, then leaves
// both configured valves on for the rest of the fill.
func (c *Controller) cleanValves() {
	if c.cleaningCounter < 1 {
		return
	}
	if c.floodingTime < c.cfg.ValveCleaningTime {
		c.cleaningCounter++
		var err error
		switch c.cleaningCounter % 4 {
		case 0:
			err = c.acts.ValveOn(1)
		case 1:
			err = c.acts.ValveOff(1)
		case 2:
			err = c.acts.ValveOn(2)
		case 3:
			err = c.acts.ValveOff(2)
		}
		if err != nil {
			c.log.Errorf("valve cleaning step failed: %v", err)
		}
		return
	}
	c.cleaningCounter = 0
	if err := c.acts.ValveOn(1); err != nil {
		c.log.Errorf("failed to open valve 1: %v", err)
	}
	if err := c.acts.ValveOn(2); err != nil {
		c.log.Errorf("failed to open valve 2: %v", err)
	}
}

// onFull is the pseudo-transient full phase: one deterministic
// transition into draining.
func (c *Controller) onFull(now time.Time) {
	c.setPhase(PhaseFull)
	// Recorded flooding time is the time to first detection; the
	// overshoot dwell is not part of it.
	c.floodingTime = c.floodDetectedAt.Sub(c.fillStartedAt)
	if c.lowWaterTime == 0 {
		c.lowWaterTime = now.Sub(c.fillStartedAt)
	}
	c.floodCount++
	c.acts.AllOff()
	c.drainStartedAt = now
	c.setPhase(PhaseDraining)
}

func (c *Controller) onDraining(now time.Time) {
	c.drainingTime = now.Sub(c.drainStartedAt)
	c.log.WithField("drainingTime", c.drainingTime).Debug("draining")

	if c.drainingTime > c.cfg.MaxDrainingTime {
		c.fail("reached maximum draining time %v, giving up", c.cfg.MaxDrainingTime)
		return
	}

	level, err := c.reader.ReadLevel(c.cfg.FloodSensor)
	if err != nil {
		c.fail("flood level read failed: %v", err)
		return
	}
	if level == LevelUnknown {
		c.fail("flood level unavailable while draining, giving up")
		return
	}
	if level == LevelOn {
		return
	}

	c.onDrained()
}

func (c *Controller) onDrained() {
	c.setPhase(PhaseDrained)
	c.writeStatistics()
	c.deact.Deactivate(c.cfg.ID)
}

// fail transitions to the error phase from anywhere: log, outputs off,
// error counter, statistics, then request deactivation. Statistics are
// written strictly before deactivation so the next activation reloads
// counters that include this failure.
func (c *Controller) fail(format string, args ...interface{}) {
	c.log.Errorf(format, args...)
	c.setPhase(PhaseError)
	c.acts.AllOff()
	c.errorCount++
	c.writeStatistics()
	c.deact.Deactivate(c.cfg.ID)
}

// Shutdown forces all outputs off and parks the machine in the shutdown
// phase. Reachable from every phase; idempotent. The host must call it
// only after the controller is removed from the tick set.
func (c *Controller) Shutdown() {
	if c.phase == PhaseShutdown {
		return
	}
	c.acts.AllOff()
	c.setPhase(PhaseShutdown)
}

func (c *Controller) setPhase(to Phase) {
	if c.phase == to {
		return
	}
	from := c.phase
	c.phase = to
	c.log.WithFields(logrus.Fields{
		"from": from.String(),
		"to":   to.String(),
	}).Info("phase transition")
	c.events.PhaseChanged(c.cfg.ID, from, to)
}
