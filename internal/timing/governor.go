package timing

import (
	"fmt"
	"time"
)

// Unlimited is the rate value meaning "as fast as the host loop spins".
const Unlimited = 0

// FrameBudget is the per-iteration decision made by Poll.
type FrameBudget struct {
	Render  bool          // a render boundary elapsed
	Updates int           // logical updates to run back to back, before rendering
	Delta   time.Duration // time since the previous poll that granted updates
}

// ShouldUpdate reports whether at least one update is due.
func (b FrameBudget) ShouldUpdate() bool {
	return b.Updates > 0
}

// RateError reports an invalid rate or cap passed to a setter.
type RateError struct {
	What  string
	Value int
}

func (e *RateError) Error() string {
	return fmt.Sprintf("timing: invalid %s %d", e.What, e.Value)
}

// Governor keeps one accumulator of owed time per rate. Owed time is paid
// off in whole periods, so a slow host iteration is followed by catch-up
// updates instead of lost ones.
type Governor struct {
	clock Clock

	renderRate int
	updateRate int
	cap        int

	started    bool
	last       time.Duration
	lastUpdate time.Duration

	renderAcc time.Duration
	updateAcc time.Duration
}

// NewGovernor creates a governor reading clock.
func NewGovernor(clock Clock, renderRate, updateRate, starvationCap int) (*Governor, error) {
	g := &Governor{clock: clock}
	if err := g.SetRenderRate(renderRate); err != nil {
		return nil, err
	}
	if err := g.SetUpdateRate(updateRate); err != nil {
		return nil, err
	}
	if err := g.SetStarvationCap(starvationCap); err != nil {
		return nil, err
	}
	return g, nil
}

// SetRenderRate changes the render rate; it applies from the next Poll.
func (g *Governor) SetRenderRate(rate int) error {
	if rate < 0 {
		return &RateError{What: "render rate", Value: rate}
	}
	g.renderRate = rate
	return nil
}

// SetUpdateRate changes the update rate; it applies from the next Poll.
func (g *Governor) SetUpdateRate(rate int) error {
	if rate < 0 {
		return &RateError{What: "update rate", Value: rate}
	}
	g.updateRate = rate
	return nil
}

// SetStarvationCap bounds catch-up updates per Poll.
func (g *Governor) SetStarvationCap(n int) error {
	if n < 1 {
		return &RateError{What: "starvation cap", Value: n}
	}
	g.cap = n
	return nil
}

// RenderRate returns the target render rate.
func (g *Governor) RenderRate() int { return g.renderRate }

// UpdateRate returns the target update rate.
func (g *Governor) UpdateRate() int { return g.updateRate }

// StarvationCap returns the catch-up bound.
func (g *Governor) StarvationCap() int { return g.cap }

// Reset drops owed time, as if the governor had just been created.
func (g *Governor) Reset() {
	g.started = false
	g.renderAcc = 0
	g.updateAcc = 0
}

// Poll advances both accumulators by the time since the previous call and
// reports which boundaries elapsed.
func (g *Governor) Poll() FrameBudget {
	now := g.clock.Now()
	if !g.started {
		g.started = true
		g.last = now
		g.lastUpdate = now
	}
	elapsed := now - g.last
	if elapsed < 0 {
		elapsed = 0
	}
	g.last = now
	g.renderAcc += elapsed
	g.updateAcc += elapsed

	var b FrameBudget

	if g.updateRate == Unlimited {
		b.Updates = 1
		g.updateAcc = 0
	} else {
		period := periodOf(g.updateRate)
		for g.updateAcc >= period && b.Updates < g.cap {
			g.updateAcc -= period
			b.Updates++
		}
		// Cap reached with time still owed: keep the phase, drop the backlog.
		if g.updateAcc >= period {
			g.updateAcc %= period
		}
	}
	if b.Updates > 0 {
		b.Delta = now - g.lastUpdate
		g.lastUpdate = now
	}

	if g.renderRate == Unlimited {
		b.Render = true
		g.renderAcc = 0
	} else {
		period := periodOf(g.renderRate)
		if g.renderAcc >= period {
			b.Render = true
			g.renderAcc -= period
			// Extra owed renders are skipped; showing them late has no value.
			g.renderAcc %= period
		}
	}

	return b
}

// Until returns how long until the next boundary is due, measured from the
// last Poll. It is zero when either rate is unlimited.
func (g *Governor) Until() time.Duration {
	if g.renderRate == Unlimited || g.updateRate == Unlimited {
		return 0
	}
	elapsed := g.clock.Now() - g.last
	wait := periodOf(g.updateRate) - g.updateAcc - elapsed
	if r := periodOf(g.renderRate) - g.renderAcc - elapsed; r < wait {
		wait = r
	}
	if wait < 0 {
		return 0
	}
	return wait
}

func periodOf(rate int) time.Duration {
	return time.Second / time.Duration(rate)
}
