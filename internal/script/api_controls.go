package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/vovakirdan/luads/internal/core"
)

func (h *Host) installControls(L *lua.LState) {
	h.held = L.NewTable()
	h.pressed = L.NewTable()
	h.released = L.NewTable()

	keys := L.NewTable()
	L.SetField(keys, "held", h.held)
	L.SetField(keys, "newPress", h.pressed)
	L.SetField(keys, "released", h.released)
	L.SetGlobal("Keys", keys)

	h.stylus = L.NewTable()
	L.SetGlobal("Stylus", h.stylus)

	controls := L.NewTable()
	L.SetFuncs(controls, map[string]lua.LGFunction{
		"read": h.controlsRead,
	})
	L.SetGlobal("Controls", controls)

	h.readControls()
}

func (h *Host) controlsRead(L *lua.LState) int {
	h.readControls()
	return 0
}

// readControls copies the current tick's snapshot into the Keys and Stylus
// tables. The snapshot does not change within a tick, so repeated calls
// give the same values.
func (h *Host) readControls() {
	in := h.env.Input
	for _, b := range core.Buttons {
		name := b.String()
		h.L.SetField(h.held, name, lua.LBool(in.Held(b)))
		h.L.SetField(h.pressed, name, lua.LBool(in.NewPress(b)))
		h.L.SetField(h.released, name, lua.LBool(in.Released(b)))
	}

	st := in.Stylus()
	h.L.SetField(h.stylus, "X", lua.LNumber(st.X))
	h.L.SetField(h.stylus, "Y", lua.LNumber(st.Y))
	h.L.SetField(h.stylus, "held", lua.LBool(st.Down))
	h.L.SetField(h.stylus, "newPress", lua.LBool(st.NewPress))
	h.L.SetField(h.stylus, "released", lua.LBool(st.Released))
	h.L.SetField(h.stylus, "doubleClick", lua.LBool(st.DoubleClick))
	h.L.SetField(h.stylus, "deltaX", lua.LNumber(st.DeltaX))
	h.L.SetField(h.stylus, "deltaY", lua.LNumber(st.DeltaY))
}
