package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nuost/ebbflood/pkg/controller"
)

// OutputConfig binds an actuator device channel to a chip line.
type OutputConfig struct {
	Device  string
	Channel int
	Pin     Pin
}

type outputState struct {
	cfg   OutputConfig
	line  OutputLine
	level controller.Level
	timer *time.Timer
}

// Driver switches relay lines and enforces the per-activation on-time
// ceiling in hardware terms: a timer forces the line off even if the
// controlling process never calls TurnOff.
type Driver struct {
	log *logrus.Logger

	mu   sync.Mutex
	outs map[string]*outputState
}

var _ controller.OutputDriver = (*Driver)(nil)

// NewDriver requests all configured output lines, initially off.
func NewDriver(chip Chip, outputs []OutputConfig, log *logrus.Logger) (*Driver, error) {
	d := &Driver{
		log:  log,
		outs: map[string]*outputState{},
	}

	for _, cfg := range outputs {
		line, err := chip.RequestOutput(cfg.Pin)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.outs[outKey(cfg.Device, cfg.Channel)] = &outputState{
			cfg:   cfg,
			line:  line,
			level: controller.LevelOff,
		}
	}
	return d, nil
}

func outKey(deviceID string, channel int) string {
	return fmt.Sprintf("%s/%d", deviceID, channel)
}

// TurnOn activates the line. When maxOn is positive the line is forced
// off after that duration.
func (d *Driver) TurnOn(deviceID string, channel int, maxOn time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.outs[outKey(deviceID, channel)]
	if !ok {
		return fmt.Errorf("unknown output %s/%d", deviceID, channel)
	}

	if err := o.line.SetValue(1); err != nil {
		return fmt.Errorf("set output %s/%d: %w", deviceID, channel, err)
	}
	o.level = controller.LevelOn

	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if maxOn > 0 {
		key := outKey(deviceID, channel)
		o.timer = time.AfterFunc(maxOn, func() { d.ceilingExpired(key, maxOn) })
	}
	return nil
}

// TurnOff deactivates the line. Turning off an already-off line is a
// no-op success.
func (d *Driver) TurnOff(deviceID string, channel int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.outs[outKey(deviceID, channel)]
	if !ok {
		return fmt.Errorf("unknown output %s/%d", deviceID, channel)
	}
	return d.turnOffLocked(o)
}

func (d *Driver) turnOffLocked(o *outputState) error {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if err := o.line.SetValue(0); err != nil {
		return fmt.Errorf("set output %s/%d: %w", o.cfg.Device, o.cfg.Channel, err)
	}
	o.level = controller.LevelOff
	return nil
}

func (d *Driver) ceilingExpired(key string, maxOn time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.outs[key]
	if !ok || o.level != controller.LevelOn {
		return
	}

	d.log.WithFields(logrus.Fields{
		"output": key,
		"maxOn":  maxOn,
	}).Warn("output on-time ceiling reached, forcing off")

	if err := d.turnOffLocked(o); err != nil {
		d.log.WithField("output", key).WithError(err).Error("failed to force output off")
	}
}

// State returns the last commanded level of the line.
func (d *Driver) State(deviceID string, channel int) (controller.Level, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.outs[outKey(deviceID, channel)]
	if !ok {
		return controller.LevelUnknown, fmt.Errorf("unknown output %s/%d", deviceID, channel)
	}
	return o.level, nil
}

// Close forces every line off and releases it.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, o := range d.outs {
		if err := d.turnOffLocked(o); err != nil {
			d.log.WithField("output", key).WithError(err).Warn("failed to turn off output on close")
		}
		if err := o.line.Close(); err != nil {
			d.log.WithField("output", key).WithError(err).Warn("failed to close gpio line")
		}
	}
	d.outs = map[string]*outputState{}
}
