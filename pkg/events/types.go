package events

import "encoding/json"

// Event name constants
const (
	ControllerPhase      = "controller.phase"
	ControllerStatistics = "controller.statistics"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// PhaseEvent is the typed payload for controller.phase.
type PhaseEvent struct {
	Controller string `json:"controller"`
	From       string `json:"from"`
	To         string `json:"to"`
	Ts         int64  `json:"ts"`
}

// StatisticsEvent is the typed payload for controller.statistics.
type StatisticsEvent struct {
	Controller   string  `json:"controller"`
	FloodCount   float64 `json:"floodCount"`
	ErrorCount   float64 `json:"errorCount"`
	FloodingTime float64 `json:"floodingTimeSeconds"`
	FloodVolume  float64 `json:"floodVolumeLiters"`
	DrainingTime float64 `json:"drainingTimeSeconds"`
	LowWaterTime float64 `json:"lowWaterTimeSeconds"`
	Ts           int64   `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.PhaseEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.From, payload.To)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
