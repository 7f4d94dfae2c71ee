package timing

import "time"

// meterWindow is how often the measured rate is refreshed.
const meterWindow = time.Second

// Meter measures how many ticks actually happened per second.
type Meter struct {
	clock  Clock
	count  int
	start  time.Duration
	actual float64
}

// NewMeter creates a meter reading clock.
func NewMeter(clock Clock) *Meter {
	return &Meter{clock: clock, start: clock.Now()}
}

// Tick records one event and refreshes the measurement when a window ends.
func (m *Meter) Tick() {
	m.count++
	m.measure()
}

// Rate returns the rate measured over the last complete window.
func (m *Meter) Rate() float64 {
	m.measure()
	return m.actual
}

// Reset starts a new measurement.
func (m *Meter) Reset() {
	m.count = 0
	m.start = m.clock.Now()
	m.actual = 0
}

func (m *Meter) measure() {
	now := m.clock.Now()
	span := now - m.start
	if span < meterWindow {
		return
	}
	m.actual = float64(m.count) / span.Seconds()
	m.count = 0
	m.start = now
}
