//go:build !linux

package gpio

import "errors"

// RealChip is not available on non-Linux platforms.
type RealChip struct{}

// NewRealChip returns an error on non-Linux platforms.
func NewRealChip(name string) (*RealChip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (c *RealChip) RequestInput(p Pin) (InputLine, error) {
	return nil, errors.New("gpio: not supported")
}

func (c *RealChip) RequestOutput(p Pin) (OutputLine, error) {
	return nil, errors.New("gpio: not supported")
}

func (c *RealChip) Close() error {
	return nil
}
