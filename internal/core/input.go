package core

// Button identifies one physical button of the emulated device.
type Button int

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonL
	ButtonR
	ButtonStart
	ButtonSelect
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Buttons lists every button in declaration order.
var Buttons = []Button{
	ButtonA, ButtonB, ButtonX, ButtonY, ButtonL, ButtonR,
	ButtonStart, ButtonSelect, ButtonUp, ButtonDown, ButtonLeft, ButtonRight,
}

// String returns the name the emulated API uses for the button.
func (b Button) String() string {
	switch b {
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	case ButtonX:
		return "X"
	case ButtonY:
		return "Y"
	case ButtonL:
		return "L"
	case ButtonR:
		return "R"
	case ButtonStart:
		return "Start"
	case ButtonSelect:
		return "Select"
	case ButtonUp:
		return "Up"
	case ButtonDown:
		return "Down"
	case ButtonLeft:
		return "Left"
	case ButtonRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// ParseButton returns the button with the given API name.
func ParseButton(name string) (Button, bool) {
	for _, b := range Buttons {
		if b.String() == name {
			return b, true
		}
	}
	return 0, false
}

// ButtonSet is a bitmask of buttons.
type ButtonSet uint16

// Set returns a copy of the set with b added.
func (s ButtonSet) Set(b Button) ButtonSet {
	return s | 1<<uint(b)
}

// Has reports whether b is in the set.
func (s ButtonSet) Has(b Button) bool {
	return s&(1<<uint(b)) != 0
}

// StylusSample is the raw pointer state sampled by the host.
type StylusSample struct {
	X, Y int
	Down bool
}

// RawInput is one host-side sample of every input device.
type RawInput struct {
	Buttons ButtonSet
	Stylus  StylusSample
}

// PressPolicy selects how "new press" is derived from the edge data.
type PressPolicy int

const (
	// PressPulse reports a new press only on the tick the button goes down.
	PressPulse PressPolicy = iota
	// PressSticky reproduces the legacy API: new press is also reported on
	// every tick the button is not held. Only holding the button past its
	// first tick clears it.
	PressSticky
)

// String returns the config name of the policy.
func (p PressPolicy) String() string {
	if p == PressSticky {
		return "sticky"
	}
	return "pulse"
}

// newPress is the single edge function shared by buttons and stylus.
func newPress(policy PressPolicy, edge, held bool) bool {
	if policy == PressSticky {
		return edge || !held
	}
	return edge
}

// DoubleClickTicks is the number of update ticks within which a second
// stylus press counts as a double click.
const DoubleClickTicks = 18

// StylusState is the stylus as seen by the guest during one update tick.
type StylusState struct {
	X, Y           int
	Down           bool
	DeltaX, DeltaY int
	NewPress       bool
	Released       bool
	DoubleClick    bool
}

// Input holds the current and previous update-tick snapshots of every
// button and the stylus. Edge state is computed once per update tick in
// BeginUpdateTick; the query methods only read it.
type Input struct {
	policy PressPolicy

	cur, prev RawInput
	pressed   ButtonSet // went down this tick
	released  ButtonSet // went up this tick

	stylus StylusState

	tick           uint64
	lastStylusTick uint64
	hasStylusPress bool
}

// NewInput creates an input state with the given press policy.
func NewInput(policy PressPolicy) *Input {
	return &Input{policy: policy}
}

// SetPolicy switches the press policy. It takes effect on the next query.
func (in *Input) SetPolicy(policy PressPolicy) {
	in.policy = policy
}

// Policy returns the active press policy.
func (in *Input) Policy() PressPolicy {
	return in.policy
}

// BeginUpdateTick makes raw the current snapshot and derives edges against
// the previous update tick's snapshot.
func (in *Input) BeginUpdateTick(raw RawInput) {
	in.tick++
	in.prev = in.cur
	in.cur = raw

	in.pressed = in.cur.Buttons &^ in.prev.Buttons
	in.released = in.prev.Buttons &^ in.cur.Buttons

	s := StylusState{
		X:        raw.Stylus.X,
		Y:        raw.Stylus.Y,
		Down:     raw.Stylus.Down,
		NewPress: raw.Stylus.Down && !in.prev.Stylus.Down,
		Released: !raw.Stylus.Down && in.prev.Stylus.Down,
	}
	// Delta is only defined while the stylus stays down across both ticks.
	if raw.Stylus.Down && in.prev.Stylus.Down {
		s.DeltaX = raw.Stylus.X - in.prev.Stylus.X
		s.DeltaY = raw.Stylus.Y - in.prev.Stylus.Y
	}
	if s.NewPress {
		if in.hasStylusPress && in.tick-in.lastStylusTick <= DoubleClickTicks {
			s.DoubleClick = true
			in.hasStylusPress = false
		} else {
			in.hasStylusPress = true
		}
		in.lastStylusTick = in.tick
	}
	in.stylus = s
}

// Reset forgets all history, as on a script restart.
func (in *Input) Reset() {
	*in = Input{policy: in.policy}
}

// Tick returns the number of update ticks seen since the last reset.
func (in *Input) Tick() uint64 {
	return in.tick
}

// Held reports whether b is physically down this tick.
func (in *Input) Held(b Button) bool {
	return in.cur.Buttons.Has(b)
}

// NewPress reports a new press of b according to the press policy.
func (in *Input) NewPress(b Button) bool {
	return newPress(in.policy, in.pressed.Has(b), in.Held(b))
}

// Released reports whether b went up this tick.
func (in *Input) Released(b Button) bool {
	return in.released.Has(b)
}

// Stylus returns the stylus state for this tick.
func (in *Input) Stylus() StylusState {
	s := in.stylus
	s.NewPress = newPress(in.policy, s.NewPress, s.Down)
	return s
}
