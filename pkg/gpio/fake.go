package gpio

import (
	"fmt"
	"sync"
)

// FakeChip is a test double with settable input values and recorded
// output writes.
type FakeChip struct {
	mu sync.Mutex

	// inputs maps line offset to the value Value() returns.
	inputs map[int]int

	// Writes records every output write in request order.
	Writes []Write

	// ValueError, if set, is returned by every input read.
	ValueError error

	// Closed tracks if Close was called.
	Closed bool
}

// Write is one recorded output write.
type Write struct {
	Line  int
	Value int
}

// NewFakeChip creates a FakeChip with all inputs reading 0.
func NewFakeChip() *FakeChip {
	return &FakeChip{inputs: map[int]int{}}
}

// SetInput sets the value subsequent reads of the line return.
func (c *FakeChip) SetInput(line, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs[line] = value
}

// OutputValue returns the last written value of the line.
func (c *FakeChip) OutputValue(line int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.Writes) - 1; i >= 0; i-- {
		if c.Writes[i].Line == line {
			return c.Writes[i].Value
		}
	}
	return 0
}

func (c *FakeChip) RequestInput(p Pin) (InputLine, error) {
	return &fakeInput{chip: c, line: p.Line}, nil
}

func (c *FakeChip) RequestOutput(p Pin) (OutputLine, error) {
	return &fakeOutput{chip: c, line: p.Line}, nil
}

func (c *FakeChip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

type fakeInput struct {
	chip *FakeChip
	line int
}

func (l *fakeInput) Value() (int, error) {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	if l.chip.ValueError != nil {
		return 0, l.chip.ValueError
	}
	v, ok := l.chip.inputs[l.line]
	if !ok {
		return 0, fmt.Errorf("line %d not set", l.line)
	}
	return v, nil
}

func (l *fakeInput) Close() error { return nil }

type fakeOutput struct {
	chip *FakeChip
	line int
}

func (l *fakeOutput) SetValue(value int) error {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	l.chip.Writes = append(l.chip.Writes, Write{Line: l.line, Value: value})
	return nil
}

func (l *fakeOutput) Close() error { return nil }
