package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestFormatPhasePayload(t *testing.T) {
	ts := time.Date(2024, 4, 2, 6, 0, 5, 0, time.UTC)
	b, err := FormatPhasePayload(PhaseEvent{
		Timestamp:    ts,
		ControllerID: "ctrl-1",
		Name:         "Table 1",
		From:         "filling",
		To:           "draining",
	})
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["timestamp"] != "2024-04-02T06:00:05Z" {
		t.Errorf("timestamp = %v", got["timestamp"])
	}
	if got["from"] != "filling" || got["to"] != "draining" {
		t.Errorf("transition = %v -> %v", got["from"], got["to"])
	}
	if got["controller"] != "ctrl-1" {
		t.Errorf("controller = %v", got["controller"])
	}
}

func TestFormatStatisticsPayload(t *testing.T) {
	b, err := FormatStatisticsPayload(StatisticsEvent{
		Timestamp:    time.Date(2024, 4, 2, 6, 2, 0, 0, time.UTC),
		ControllerID: "ctrl-1",
		FloodCount:   3,
		ErrorCount:   1,
		FloodingTime: 100,
		DrainingTime: 40,
	})
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["floodCount"] != float64(3) {
		t.Errorf("floodCount = %v", got["floodCount"])
	}
	if got["floodingTimeSeconds"] != float64(100) {
		t.Errorf("floodingTimeSeconds = %v", got["floodingTimeSeconds"])
	}
	// Zero channels are still present so consumers see a full snapshot.
	if _, ok := got["floodVolumeLiters"]; !ok {
		t.Error("floodVolumeLiters missing from payload")
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishPhase(PhaseEvent{From: "idle", To: "starting"}); err != nil {
		t.Fatalf("publish phase: %v", err)
	}
	if err := f.PublishStatistics(StatisticsEvent{FloodCount: 1}); err != nil {
		t.Fatalf("publish statistics: %v", err)
	}

	if len(f.PhaseEvents) != 1 || f.PhaseEvents[0].To != "starting" {
		t.Errorf("phase events = %+v", f.PhaseEvents)
	}
	if len(f.StatisticsEvents) != 1 {
		t.Errorf("statistics events = %+v", f.StatisticsEvents)
	}

	f.PublishError = errors.New("broker down")
	if err := f.PublishPhase(PhaseEvent{}); err == nil {
		t.Error("expected injected publish error")
	}

	f.Reset()
	if len(f.PhaseEvents) != 0 || f.Closed {
		t.Error("reset did not clear state")
	}
}
