package controller

import (
	"time"

	"github.com/sirupsen/logrus"
)

// forceRemeasureMinInterval suppresses repeated forced-refresh requests
// to the same device.
const forceRemeasureMinInterval = time.Second

// SensorReader normalizes raw measurements into tri-state levels. Each
// controller owns its own reader so the force-remeasure rate limiter
// never leaks across instances.
type SensorReader struct {
	store  MeasurementStore
	maxAge time.Duration
	log    logrus.FieldLogger
	now    func() time.Time

	lastForced map[string]time.Time
}

func NewSensorReader(store MeasurementStore, maxAge time.Duration, log logrus.FieldLogger) *SensorReader {
	return &SensorReader{
		store:      store,
		maxAge:     maxAge,
		log:        log,
		now:        time.Now,
		lastForced: make(map[string]time.Time),
	}
}

// ReadLevel requests a fresh sample from the source and maps it to a
// level. It returns LevelUnknown with a nil error when no usable sample
// exists (missing or stale), and LevelUnknown with ErrInvalidReading when
// the sample value does not map to a boolean.
func (r *SensorReader) ReadLevel(src Source) (Level, error) {
	r.forceRemeasure(src.Device)

	s, ok, err := r.store.Latest(src.Device, src.Channel, r.maxAge)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"source": src.String(),
		}).Warnf("could not query measurement store: %v", err)
		return LevelUnknown, nil
	}
	if !ok {
		r.log.WithFields(logrus.Fields{
			"source": src.String(),
			"maxAge": r.maxAge,
		}).Warn("no usable measurement")
		return LevelUnknown, nil
	}

	r.log.WithFields(logrus.Fields{
		"source": src.String(),
		"value":  s.Value,
		"age":    r.now().Sub(s.Time),
	}).Debug("sensor level read")

	switch s.Value {
	case 0:
		return LevelOff, nil
	case 1:
		return LevelOn, nil
	}
	r.log.WithFields(logrus.Fields{
		"source": src.String(),
		"value":  s.Value,
	}).Error("measurement does not map to a boolean level")
	return LevelUnknown, ErrInvalidReading
}

// forceRemeasure triggers an upstream re-measurement, at most once per
// second per device.
func (r *SensorReader) forceRemeasure(deviceID string) {
	now := r.now()
	if last, ok := r.lastForced[deviceID]; ok && now.Sub(last) < forceRemeasureMinInterval {
		return
	}
	r.store.ForceRemeasure(deviceID)
	r.lastForced[deviceID] = now
}
