package daemon

import (
	"time"

	"github.com/nuost/ebbflood/pkg/controller"
	"github.com/nuost/ebbflood/pkg/store"
)

// Remeasurer triggers an immediate sample of a device.
type Remeasurer interface {
	ForceRemeasure(deviceID string)
}

// Measurements combines the persistent store with the live GPIO sampler
// so controllers can both read samples and demand fresh ones.
type Measurements struct {
	db      *store.DB
	sampler Remeasurer
}

var _ controller.MeasurementStore = (*Measurements)(nil)

// NewMeasurements creates the measurement facade. sampler may be nil
// when the daemon runs without hardware.
func NewMeasurements(db *store.DB, sampler Remeasurer) *Measurements {
	return &Measurements{db: db, sampler: sampler}
}

func (m *Measurements) ForceRemeasure(deviceID string) {
	if m.sampler != nil {
		m.sampler.ForceRemeasure(deviceID)
	}
}

func (m *Measurements) Latest(deviceID string, channel int, maxAge time.Duration) (controller.Sample, bool, error) {
	return m.db.Latest(deviceID, channel, maxAge)
}

func (m *Measurements) HasDevice(deviceID string) bool {
	return m.db.HasDevice(deviceID)
}

func (m *Measurements) AppendStatistics(controllerID string, batch map[int]float64) error {
	return m.db.AppendStatistics(controllerID, batch)
}

func (m *Measurements) LatestStatistic(controllerID string, channel int) (float64, bool, error) {
	return m.db.LatestStatistic(controllerID, channel)
}
