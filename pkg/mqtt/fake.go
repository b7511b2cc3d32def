package mqtt

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// PhaseEvents contains all phase transitions that were published.
	PhaseEvents []PhaseEvent

	// StatisticsEvents contains all statistics snapshots that were
	// published.
	StatisticsEvents []StatisticsEvent

	// PublishError, if set, is returned by both publish methods.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishPhase records the phase event.
func (f *FakePublisher) PublishPhase(event PhaseEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.PhaseEvents = append(f.PhaseEvents, event)
	return nil
}

// PublishStatistics records the statistics event.
func (f *FakePublisher) PublishStatistics(event StatisticsEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.StatisticsEvents = append(f.StatisticsEvents, event)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.PhaseEvents = nil
	f.StatisticsEvents = nil
	f.Closed = false
	f.PublishError = nil
}
