//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealChip is a GPIO character device chip.
type RealChip struct {
	chip *gpiocdev.Chip
}

// NewRealChip opens the named GPIO chip, e.g. "gpiochip0".
func NewRealChip(name string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &RealChip{chip: chip}, nil
}

// RequestInput requests the line as input with pull-up, matching the
// usual float switch wiring (switch pulls the line to ground).
func (c *RealChip) RequestInput(p Pin) (InputLine, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp}
	if p.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := c.chip.RequestLine(p.Line, opts...)
	if err != nil {
		return nil, fmt.Errorf("request input line %d: %w", p.Line, err)
	}
	return line, nil
}

// RequestOutput requests the line as output, initially inactive.
func (c *RealChip) RequestOutput(p Pin) (OutputLine, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if p.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := c.chip.RequestLine(p.Line, opts...)
	if err != nil {
		return nil, fmt.Errorf("request output line %d: %w", p.Line, err)
	}
	return line, nil
}

// Close releases the chip. Requested lines must be closed first.
func (c *RealChip) Close() error {
	return c.chip.Close()
}
