package gpio

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Recorder receives sampled sensor values.
type Recorder interface {
	AppendSample(deviceID string, channel int, value float64, ts time.Time) error
}

// InputConfig binds a device channel to a chip line.
type InputConfig struct {
	Device  string
	Channel int
	Pin     Pin
	Poll    time.Duration
}

type inputLine struct {
	cfg  InputConfig
	line InputLine
	due  time.Time
}

// Sampler polls float switch lines and records their values. Reads
// triggered by ForceRemeasure are taken immediately so a controller
// tick sees a fresh sample.
type Sampler struct {
	log *logrus.Logger
	rec Recorder
	now func() time.Time

	mu   sync.Mutex
	pins []*inputLine
}

// NewSampler requests all configured input lines.
func NewSampler(chip Chip, inputs []InputConfig, rec Recorder, log *logrus.Logger) (*Sampler, error) {
	s := &Sampler{
		log: log,
		rec: rec,
		now: time.Now,
	}

	for _, cfg := range inputs {
		line, err := chip.RequestInput(cfg.Pin)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.pins = append(s.pins, &inputLine{cfg: cfg, line: line})
	}
	return s, nil
}

// Run polls until the context is canceled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(s.now())
		}
	}
}

// poll samples every line whose poll interval has elapsed.
func (s *Sampler) poll(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pins {
		if now.Before(p.due) {
			continue
		}
		p.due = now.Add(p.cfg.Poll)
		s.sampleLocked(p, now)
	}
}

// ForceRemeasure samples all lines of the device right away.
func (s *Sampler) ForceRemeasure(deviceID string) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pins {
		if p.cfg.Device != deviceID {
			continue
		}
		p.due = now.Add(p.cfg.Poll)
		s.sampleLocked(p, now)
	}
}

func (s *Sampler) sampleLocked(p *inputLine, now time.Time) {
	v, err := p.line.Value()
	if err != nil {
		// No sample is recorded, so readers see the value go stale.
		s.log.WithFields(logrus.Fields{
			"device": p.cfg.Device,
			"line":   p.cfg.Pin.Line,
		}).WithError(err).Warn("failed to read gpio line")
		return
	}

	if err := s.rec.AppendSample(p.cfg.Device, p.cfg.Channel, float64(v), now); err != nil {
		s.log.WithFields(logrus.Fields{
			"device": p.cfg.Device,
		}).WithError(err).Warn("failed to record sample")
	}
}

// Close releases all requested lines.
func (s *Sampler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pins {
		if err := p.line.Close(); err != nil {
			s.log.WithField("line", p.cfg.Pin.Line).WithError(err).Warn("failed to close gpio line")
		}
	}
	s.pins = nil
}
