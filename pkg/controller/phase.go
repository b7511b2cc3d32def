package controller

// Phase is the state of the irrigation state machine.
//
// idle is the initial phase. drained and error end the current cycle and
// deactivate the controller; shutdown is terminal until the controller is
// rebuilt. error and shutdown are reachable from every phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseFilling
	PhaseFull
	PhaseDraining
	PhaseDrained
	PhaseError
	PhaseShutdown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseFilling:
		return "filling"
	case PhaseFull:
		return "full"
	case PhaseDraining:
		return "draining"
	case PhaseDrained:
		return "drained"
	case PhaseError:
		return "error"
	case PhaseShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the current cycle. A controller
// in a terminal phase has requested its own deactivation and will not
// re-arm until it is explicitly activated again.
func (p Phase) Terminal() bool {
	return p == PhaseDrained || p == PhaseError || p == PhaseShutdown
}

// Level is a normalized boolean sensor or actuator reading.
type Level int

const (
	// LevelUnknown means no sample exists, the sample is stale, or the
	// actuator state could not be read.
	LevelUnknown Level = iota
	LevelOff
	LevelOn
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelOn:
		return "on"
	default:
		return "unknown"
	}
}
