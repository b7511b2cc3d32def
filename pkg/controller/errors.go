package controller

import "errors"

var (
	// ErrInvalidReading is returned by the sensor reader when a sample
	// value cannot be mapped to a boolean level. It is fatal to the
	// running cycle.
	ErrInvalidReading = errors.New("measurement value is not a boolean level")

	// ErrTickInErrorPhase is returned by Tick when the controller is
	// stepped while already in the error phase. The controller requested
	// its own deactivation on entering that phase, so a resuming tick
	// means deactivation failed. This is the only error Tick returns;
	// every domain failure is handled internally.
	ErrTickInErrorPhase = errors.New("tick while in error phase: controller should have been deactivated")
)
