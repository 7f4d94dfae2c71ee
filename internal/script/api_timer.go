package script

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/vovakirdan/luads/internal/timing"
)

const timerTypeName = "Timer"

// luaTimer is a stopwatch on the host clock, in milliseconds.
type luaTimer struct {
	clock     timing.Clock
	running   bool
	base      time.Duration
	startedAt time.Duration
}

func (t *luaTimer) elapsed() time.Duration {
	if t.running {
		return t.base + t.clock.Now() - t.startedAt
	}
	return t.base
}

func (t *luaTimer) start() {
	if t.running {
		return
	}
	t.running = true
	t.startedAt = t.clock.Now()
}

func (t *luaTimer) stop() {
	if !t.running {
		return
	}
	t.base = t.elapsed()
	t.running = false
}

// reset zeroes the timer and leaves it stopped.
func (t *luaTimer) reset() {
	t.running = false
	t.base = 0
}

func (h *Host) installTimer(L *lua.LState) {
	mt := L.NewTypeMetatable(timerTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"start": timerStart,
		"stop":  timerStop,
		"reset": timerReset,
		"time":  timerTime,
	}))

	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"new": h.timerNew,
	})
	L.SetGlobal("Timer", mod)

	L.SetGlobal("delay", L.NewFunction(h.delay))
}

// timerNew creates a stopped timer at zero.
func (h *Host) timerNew(L *lua.LState) int {
	ud := L.NewUserData()
	ud.Value = &luaTimer{clock: h.env.Clock}
	L.SetMetatable(ud, L.GetTypeMetatable(timerTypeName))
	L.Push(ud)
	return 1
}

func checkTimer(L *lua.LState) *luaTimer {
	ud := L.CheckUserData(1)
	if t, ok := ud.Value.(*luaTimer); ok {
		return t
	}
	L.ArgError(1, "Timer expected")
	return nil
}

func timerStart(L *lua.LState) int {
	checkTimer(L).start()
	return 0
}

func timerStop(L *lua.LState) int {
	checkTimer(L).stop()
	return 0
}

func timerReset(L *lua.LState) int {
	checkTimer(L).reset()
	return 0
}

func timerTime(L *lua.LState) int {
	L.Push(lua.LNumber(checkTimer(L).elapsed().Milliseconds()))
	return 1
}

// delay(ms) suspends the guest until the clock passes the deadline. Update
// ticks that fall inside the delay do not resume the guest.
func (h *Host) delay(L *lua.LState) int {
	ms := L.CheckInt(1)
	if ms <= 0 {
		return 0
	}
	h.sleeping = true
	h.wake = h.env.Clock.Now() + time.Duration(ms)*time.Millisecond
	return L.Yield()
}
