package daemon

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nuost/ebbflood/pkg/controller"
	"github.com/nuost/ebbflood/pkg/events"
	"github.com/nuost/ebbflood/pkg/mqtt"
)

// MultiSink fans controller events out to several sinks.
type MultiSink []controller.EventSink

func (m MultiSink) PhaseChanged(controllerID string, from, to controller.Phase) {
	for _, s := range m {
		s.PhaseChanged(controllerID, from, to)
	}
}

func (m MultiSink) StatisticsWritten(controllerID string, batch map[int]float64) {
	for _, s := range m {
		s.StatisticsWritten(controllerID, batch)
	}
}

// HubSink forwards controller events to the in-process event hub,
// where SSE subscribers pick them up.
type HubSink struct {
	hub *events.EventHub
	now func() time.Time
}

var _ controller.EventSink = (*HubSink)(nil)

// NewHubSink creates a sink that publishes into hub.
func NewHubSink(hub *events.EventHub) *HubSink {
	return &HubSink{hub: hub, now: time.Now}
}

func (s *HubSink) PhaseChanged(controllerID string, from, to controller.Phase) {
	s.hub.Publish(events.ControllerPhase, events.PhaseEvent{
		Controller: controllerID,
		From:       from.String(),
		To:         to.String(),
		Ts:         s.now().Unix(),
	})
}

func (s *HubSink) StatisticsWritten(controllerID string, batch map[int]float64) {
	s.hub.Publish(events.ControllerStatistics, events.StatisticsEvent{
		Controller:   controllerID,
		FloodCount:   batch[controller.StatFloodCount],
		ErrorCount:   batch[controller.StatErrorCount],
		FloodingTime: batch[controller.StatFloodingTime],
		FloodVolume:  batch[controller.StatFloodVolume],
		DrainingTime: batch[controller.StatDrainingTime],
		LowWaterTime: batch[controller.StatLowWaterTime],
		Ts:           s.now().Unix(),
	})
}

// EventPublisher forwards controller events to an MQTT broker. Publish
// failures are logged and swallowed so a flaky broker never disturbs a
// running cycle.
type EventPublisher struct {
	log   *logrus.Logger
	pub   mqtt.Publisher
	names map[string]string
	now   func() time.Time
}

var _ controller.EventSink = (*EventPublisher)(nil)

// NewEventPublisher creates a sink that publishes through pub. names
// maps controller IDs to their display names.
func NewEventPublisher(pub mqtt.Publisher, names map[string]string, log *logrus.Logger) *EventPublisher {
	return &EventPublisher{
		log:   log,
		pub:   pub,
		names: names,
		now:   time.Now,
	}
}

func (p *EventPublisher) PhaseChanged(controllerID string, from, to controller.Phase) {
	err := p.pub.PublishPhase(mqtt.PhaseEvent{
		Timestamp:    p.now(),
		ControllerID: controllerID,
		Name:         p.names[controllerID],
		From:         from.String(),
		To:           to.String(),
	})
	if err != nil {
		p.log.WithField("controller", controllerID).WithError(err).Warn("failed to publish phase event")
	}
}

func (p *EventPublisher) StatisticsWritten(controllerID string, batch map[int]float64) {
	err := p.pub.PublishStatistics(mqtt.StatisticsEvent{
		Timestamp:    p.now(),
		ControllerID: controllerID,
		Name:         p.names[controllerID],
		FloodCount:   batch[controller.StatFloodCount],
		ErrorCount:   batch[controller.StatErrorCount],
		FloodingTime: batch[controller.StatFloodingTime],
		FloodVolume:  batch[controller.StatFloodVolume],
		DrainingTime: batch[controller.StatDrainingTime],
		LowWaterTime: batch[controller.StatLowWaterTime],
	})
	if err != nil {
		p.log.WithField("controller", controllerID).WithError(err).Warn("failed to publish statistics event")
	}
}
