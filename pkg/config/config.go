// Package config loads and validates the daemon configuration file.
package config

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/nuost/ebbflood/pkg/controller"
)

// Duration wraps time.Duration so YAML values can be written as
// human-readable strings like "30s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return pkgerrors.Wrapf(err, "invalid duration %q", s)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Endpoint addresses one channel of a device.
type Endpoint struct {
	Device  string `yaml:"device"`
	Channel int    `yaml:"channel"`
}

func (e Endpoint) toSource() controller.Source {
	return controller.Source{Device: e.Device, Channel: e.Channel}
}

func (e Endpoint) toOutput() controller.Output {
	return controller.Output{Device: e.Device, Channel: e.Channel}
}

// InputPin maps a GPIO line to a sensor device channel.
type InputPin struct {
	Device    string   `yaml:"device"`
	Channel   int      `yaml:"channel"`
	Line      int      `yaml:"line"`
	ActiveLow bool     `yaml:"activeLow"`
	Poll      Duration `yaml:"poll"`
}

// OutputPin maps a GPIO line to an actuator device channel.
type OutputPin struct {
	Device    string `yaml:"device"`
	Channel   int    `yaml:"channel"`
	Line      int    `yaml:"line"`
	ActiveLow bool   `yaml:"activeLow"`
}

// GPIO describes the character device and its line assignments.
type GPIO struct {
	Chip    string      `yaml:"chip"`
	Inputs  []InputPin  `yaml:"inputs"`
	Outputs []OutputPin `yaml:"outputs"`
}

// MQTT describes the optional broker connection for event publishing.
type MQTT struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"clientId"`
	TopicPrefix string `yaml:"topicPrefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// Enabled reports whether a broker has been configured.
func (m MQTT) Enabled() bool {
	return m.Broker != ""
}

// Controller is the file representation of one ebb-flood controller.
type Controller struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Schedule is an optional cron expression that re-activates the
	// controller (standard 5-field syntax).
	Schedule string `yaml:"schedule"`

	Period            Duration `yaml:"period"`
	FloodSensor       Endpoint `yaml:"floodSensor"`
	BasinSensor       Endpoint `yaml:"basinSensor"`
	MaxMeasurementAge Duration `yaml:"maxMeasurementAge"`

	Pump   Endpoint `yaml:"pump"`
	Valve1 Endpoint `yaml:"valve1"`
	Valve2 Endpoint `yaml:"valve2"`

	MaxOnTime         Duration `yaml:"maxOnTime"`
	MaxFloodingTime   Duration `yaml:"maxFloodingTime"`
	FloodingOvershoot Duration `yaml:"floodingOvershoot"`
	MaxDrainingTime   Duration `yaml:"maxDrainingTime"`
	ValveCleaningTime Duration `yaml:"valveCleaningTime"`
}

// ControllerConfig converts the file representation into the runtime
// controller configuration.
func (c Controller) ControllerConfig() controller.Config {
	return controller.Config{
		ID:                c.ID,
		Name:              c.Name,
		Period:            c.Period.Duration,
		FloodSensor:       c.FloodSensor.toSource(),
		BasinSensor:       c.BasinSensor.toSource(),
		MaxMeasurementAge: c.MaxMeasurementAge.Duration,
		Pump:              c.Pump.toOutput(),
		Valve1:            c.Valve1.toOutput(),
		Valve2:            c.Valve2.toOutput(),
		MaxOnTime:         c.MaxOnTime.Duration,
		MaxFloodingTime:   c.MaxFloodingTime.Duration,
		FloodingOvershoot: c.FloodingOvershoot.Duration,
		MaxDrainingTime:   c.MaxDrainingTime.Duration,
		ValveCleaningTime: c.ValveCleaningTime.Duration,
	}
}

// Config is the daemon configuration file.
type Config struct {
	Socket          string   `yaml:"socket"`
	Database        string   `yaml:"database"`
	TickInterval    Duration `yaml:"tickInterval"`
	SampleRetention Duration `yaml:"sampleRetention"`

	MQTT MQTT `yaml:"mqtt"`
	GPIO GPIO `yaml:"gpio"`

	Controllers []Controller `yaml:"controllers"`
}

const (
	defaultSocket          = "/var/run/ebbflood.sock"
	defaultDatabase        = "/var/lib/ebbflood/ebbflood.db"
	defaultTickInterval    = 100 * time.Millisecond
	defaultSampleRetention = 72 * time.Hour
	defaultGPIOChip        = "gpiochip0"
	defaultInputPoll       = 500 * time.Millisecond
)

func (c *Config) applyDefaults() {
	if c.Socket == "" {
		c.Socket = defaultSocket
	}
	if c.Database == "" {
		c.Database = defaultDatabase
	}
	if c.TickInterval.Duration <= 0 {
		c.TickInterval.Duration = defaultTickInterval
	}
	if c.SampleRetention.Duration <= 0 {
		c.SampleRetention.Duration = defaultSampleRetention
	}
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = defaultGPIOChip
	}
	for i := range c.GPIO.Inputs {
		if c.GPIO.Inputs[i].Poll.Duration <= 0 {
			c.GPIO.Inputs[i].Poll.Duration = defaultInputPoll
		}
	}
}

// Validate checks the configuration for mistakes a typo in the file
// could produce. Controller-level validation is delegated to the
// controller package.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for i := range c.Controllers {
		fc := &c.Controllers[i]
		if seen[fc.ID] {
			return pkgerrors.Errorf("duplicate controller id %q", fc.ID)
		}
		seen[fc.ID] = true

		if err := fc.ControllerConfig().Validate(); err != nil {
			return pkgerrors.Wrapf(err, "controller %q", fc.ID)
		}
	}

	lines := map[int]string{}
	for _, p := range c.GPIO.Inputs {
		if prev, ok := lines[p.Line]; ok {
			return pkgerrors.Errorf("gpio line %d assigned to both %s and %s", p.Line, prev, p.Device)
		}
		lines[p.Line] = p.Device
	}
	for _, p := range c.GPIO.Outputs {
		if prev, ok := lines[p.Line]; ok {
			return pkgerrors.Errorf("gpio line %d assigned to both %s and %s", p.Line, prev, p.Device)
		}
		lines[p.Line] = p.Device
	}

	return nil
}

// LogrusFields summarizes the configuration for the startup log line.
func (c *Config) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"socket":       c.Socket,
		"database":     c.Database,
		"tickInterval": c.TickInterval.Duration,
		"controllers":  len(c.Controllers),
		"gpioInputs":   len(c.GPIO.Inputs),
		"gpioOutputs":  len(c.GPIO.Outputs),
		"mqtt":         c.MQTT.Enabled(),
	}
}
