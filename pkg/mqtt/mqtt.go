// Package mqtt publishes controller events to an MQTT broker, with a
// fake implementation for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Publisher publishes controller events.
type Publisher interface {
	// PublishPhase sends a phase transition event. Errors are reported
	// but must never stop a controller cycle.
	PublishPhase(event PhaseEvent) error

	// PublishStatistics sends an end-of-cycle statistics snapshot.
	PublishStatistics(event StatisticsEvent) error

	// Close disconnects from the broker.
	Close() error
}

// PhaseEvent describes one phase transition of a controller.
type PhaseEvent struct {
	Timestamp    time.Time
	ControllerID string
	Name         string
	From         string
	To           string
}

// StatisticsEvent carries the statistics batch written at the end of a
// cycle, keyed by channel name instead of channel number.
type StatisticsEvent struct {
	Timestamp    time.Time
	ControllerID string
	Name         string
	FloodCount   float64
	ErrorCount   float64
	FloodingTime float64
	FloodVolume  float64
	DrainingTime float64
	LowWaterTime float64
}

type phasePayload struct {
	Timestamp  string `json:"timestamp"`
	Controller string `json:"controller"`
	Name       string `json:"name,omitempty"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type statisticsPayload struct {
	Timestamp    string  `json:"timestamp"`
	Controller   string  `json:"controller"`
	Name         string  `json:"name,omitempty"`
	FloodCount   float64 `json:"floodCount"`
	ErrorCount   float64 `json:"errorCount"`
	FloodingTime float64 `json:"floodingTimeSeconds"`
	FloodVolume  float64 `json:"floodVolumeLiters"`
	DrainingTime float64 `json:"drainingTimeSeconds"`
	LowWaterTime float64 `json:"lowWaterTimeSeconds"`
}

// FormatPhasePayload creates the JSON payload for a phase event.
func FormatPhasePayload(event PhaseEvent) ([]byte, error) {
	return json.Marshal(phasePayload{
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
		Controller: event.ControllerID,
		Name:       event.Name,
		From:       event.From,
		To:         event.To,
	})
}

// FormatStatisticsPayload creates the JSON payload for a statistics event.
func FormatStatisticsPayload(event StatisticsEvent) ([]byte, error) {
	return json.Marshal(statisticsPayload{
		Timestamp:    event.Timestamp.UTC().Format(time.RFC3339),
		Controller:   event.ControllerID,
		Name:         event.Name,
		FloodCount:   event.FloodCount,
		ErrorCount:   event.ErrorCount,
		FloodingTime: event.FloodingTime,
		FloodVolume:  event.FloodVolume,
		DrainingTime: event.DrainingTime,
		LowWaterTime: event.LowWaterTime,
	})
}
