// Package gpio reads float switches and drives relay outputs through
// the Linux GPIO character device, with a fake chip for testing.
package gpio

// Pin identifies one line on the chip.
type Pin struct {
	Line      int
	ActiveLow bool
}

// Chip is the hardware surface the sampler and driver need.
type Chip interface {
	RequestInput(p Pin) (InputLine, error)
	RequestOutput(p Pin) (OutputLine, error)
	Close() error
}

// InputLine is a requested input line.
type InputLine interface {
	// Value returns the logical line value (active-low already applied).
	Value() (int, error)
	Close() error
}

// OutputLine is a requested output line.
type OutputLine interface {
	SetValue(value int) error
	Close() error
}
