package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/nuost/ebbflood/pkg/controller"
	"github.com/nuost/ebbflood/pkg/mqtt"
)

func TestEventPublisherPhase(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	sink := NewEventPublisher(pub, map[string]string{"ctrl-1": "Table 1"}, quietLogger())
	sink.now = func() time.Time { return time.Date(2024, 4, 2, 6, 0, 0, 0, time.UTC) }

	sink.PhaseChanged("ctrl-1", controller.PhaseFilling, controller.PhaseDraining)

	if len(pub.PhaseEvents) != 1 {
		t.Fatalf("phase events = %d, want 1", len(pub.PhaseEvents))
	}
	ev := pub.PhaseEvents[0]
	if ev.From != "filling" || ev.To != "draining" {
		t.Errorf("transition = %s -> %s", ev.From, ev.To)
	}
	if ev.Name != "Table 1" {
		t.Errorf("name = %q", ev.Name)
	}
}

func TestEventPublisherStatistics(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	sink := NewEventPublisher(pub, nil, quietLogger())

	sink.StatisticsWritten("ctrl-1", map[int]float64{
		controller.StatFloodCount:   2,
		controller.StatErrorCount:   0,
		controller.StatFloodingTime: 100,
		controller.StatFloodVolume:  0,
		controller.StatDrainingTime: 40,
		controller.StatLowWaterTime: 0,
	})

	if len(pub.StatisticsEvents) != 1 {
		t.Fatalf("statistics events = %d, want 1", len(pub.StatisticsEvents))
	}
	ev := pub.StatisticsEvents[0]
	if ev.FloodCount != 2 || ev.FloodingTime != 100 || ev.DrainingTime != 40 {
		t.Errorf("event = %+v", ev)
	}
}

func TestEventPublisherSwallowsErrors(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.PublishError = errors.New("broker down")
	sink := NewEventPublisher(pub, nil, quietLogger())

	// Must not panic or propagate.
	sink.PhaseChanged("ctrl-1", controller.PhaseIdle, controller.PhaseStarting)
	sink.StatisticsWritten("ctrl-1", map[int]float64{})
}
