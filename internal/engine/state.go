package engine

// RunState is the lifecycle state of the hosted script.
type RunState int

const (
	// Stopped: no script is running. Initial state, and the state after the
	// script returns or calls os.exit.
	Stopped RunState = iota
	// Loaded: a fresh guest context exists but has not run yet.
	Loaded
	// Running: the guest is resumed on every update tick.
	Running
	// Paused: update ticks are skipped; rendering continues.
	Paused
	// Errored: the guest raised a fault or could not be loaded.
	Errored
)

func (s RunState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Loaded:
		return "loaded"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Live reports whether the guest context can still be resumed.
func (s RunState) Live() bool {
	return s == Running || s == Paused
}
