package controller

import "github.com/sirupsen/logrus"

// Statistics channel numbers. The layout is fixed: dashboards and the
// reset command address counters by channel.
const (
	StatFloodCount   = 0
	StatErrorCount   = 1
	StatFloodingTime = 2 // seconds
	StatFloodVolume  = 3 // liters
	StatDrainingTime = 4 // seconds
	StatLowWaterTime = 5 // seconds
)

// seedCounters loads the cumulative counters from the last persisted
// statistics batch so they keep incrementing across restarts.
func (c *Controller) seedCounters() {
	for _, ch := range []struct {
		channel int
		dst     *float64
	}{
		{StatFloodCount, &c.floodCount},
		{StatErrorCount, &c.errorCount},
	} {
		v, ok, err := c.store.LatestStatistic(c.cfg.ID, ch.channel)
		if err != nil {
			c.log.Warnf("could not seed counter from channel %d: %v", ch.channel, err)
			continue
		}
		if ok {
			*ch.dst = v
		}
	}
	c.log.WithFields(logrus.Fields{
		"floodCount": c.floodCount,
		"errorCount": c.errorCount,
	}).Debug("seeded cumulative counters")
}

// writeStatistics persists all six channels as one timestamped batch.
// Called exactly once per terminal transition, strictly before
// deactivation is requested.
func (c *Controller) writeStatistics() {
	batch := map[int]float64{
		StatFloodCount:   c.floodCount,
		StatErrorCount:   c.errorCount,
		StatFloodingTime: c.floodingTime.Seconds(),
		StatFloodVolume:  c.floodVolume,
		StatDrainingTime: c.drainingTime.Seconds(),
		StatLowWaterTime: c.lowWaterTime.Seconds(),
	}
	c.log.WithField("batch", batch).Debug("writing statistics")
	if err := c.store.AppendStatistics(c.cfg.ID, batch); err != nil {
		c.log.Errorf("failed to write statistics: %v", err)
		return
	}
	c.events.StatisticsWritten(c.cfg.ID, batch)
}

// ResetErrorCounter persists a zero error counter for the controller
// without touching any other channel. Operator command; returns a
// confirmation string for the caller.
func ResetErrorCounter(store MeasurementStore, controllerID string) (string, error) {
	if err := store.AppendStatistics(controllerID, map[int]float64{StatErrorCount: 0}); err != nil {
		return "", err
	}
	return "Reset of error counter.", nil
}
