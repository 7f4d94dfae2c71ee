package script

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/vovakirdan/luads/internal/core"
)

func (h *Host) installScreen(L *lua.LState) {
	L.SetGlobal("SCREEN_UP", lua.LNumber(core.ScreenUp))
	L.SetGlobal("SCREEN_DOWN", lua.LNumber(core.ScreenDown))

	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"drawPoint":        h.drawPoint,
		"drawLine":         h.drawLine,
		"drawRect":         h.drawRect,
		"drawFillRect":     h.drawFillRect,
		"drawGradientRect": h.drawGradientRect,
		"print":            h.screenPrint,
		"clear":            h.screenClear,
		"setClip":          h.setClip,
		"resetClip":        h.resetClip,
		"select":           h.selectScreen,
		"getWidth":         screenWidth,
		"getHeight":        screenHeight,
	})
	L.SetGlobal("screen", mod)

	colors := L.NewTable()
	L.SetFuncs(colors, map[string]lua.LGFunction{
		"new": colorNew,
	})
	L.SetGlobal("Color", colors)
}

// surfaceArg reads a screen id argument. nil means the selected target.
func (h *Host) surfaceArg(L *lua.LState, n int) *core.Surface {
	if L.Get(n) == lua.LNil {
		return h.env.Screens.Surface(h.env.Screens.Target())
	}
	id := core.ScreenID(L.CheckInt(n))
	if !id.Valid() {
		L.ArgError(n, "screen must be SCREEN_UP or SCREEN_DOWN")
	}
	return h.env.Screens.Surface(id)
}

func colorArg(L *lua.LState, n int, def core.Color) core.Color {
	return core.Color(L.OptInt(n, int(def)) & 0x7FFF)
}

// coordLimit bounds guest coordinates. Anything this far off screen draws
// the same as any larger value.
const coordLimit = 1 << 20

// coordArg reads a pixel coordinate. Non-finite numbers are an argument
// error; finite ones are clamped to ±coordLimit before the int conversion.
func coordArg(L *lua.LState, n int) int {
	v := float64(L.CheckNumber(n))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		L.ArgError(n, "coordinate must be a finite number")
	}
	return int(math.Max(-coordLimit, math.Min(coordLimit, v)))
}

// rectArg reads two inclusive corners starting at argument n.
func rectArg(L *lua.LState, n int) core.Rect {
	return core.RectFromCorners(coordArg(L, n), coordArg(L, n+1), coordArg(L, n+2), coordArg(L, n+3))
}

func (h *Host) drawPoint(L *lua.LState) int {
	s := h.surfaceArg(L, 1)
	s.Set(coordArg(L, 2), coordArg(L, 3), colorArg(L, 4, core.ColorWhite))
	return 0
}

func (h *Host) drawLine(L *lua.LState) int {
	s := h.surfaceArg(L, 1)
	s.DrawLine(coordArg(L, 2), coordArg(L, 3), coordArg(L, 4), coordArg(L, 5), colorArg(L, 6, core.ColorWhite))
	return 0
}

func (h *Host) drawRect(L *lua.LState) int {
	s := h.surfaceArg(L, 1)
	s.DrawRect(rectArg(L, 2), colorArg(L, 6, core.ColorWhite))
	return 0
}

func (h *Host) drawFillRect(L *lua.LState) int {
	s := h.surfaceArg(L, 1)
	s.FillRect(rectArg(L, 2), colorArg(L, 6, core.ColorWhite))
	return 0
}

func (h *Host) drawGradientRect(L *lua.LState) int {
	s := h.surfaceArg(L, 1)
	r := rectArg(L, 2)
	tl := colorArg(L, 6, core.ColorBlack)
	s.FillGradient(r, tl, colorArg(L, 7, tl), colorArg(L, 8, tl), colorArg(L, 9, tl))
	return 0
}

func (h *Host) screenPrint(L *lua.LState) int {
	s := h.surfaceArg(L, 1)
	text := L.ToStringMeta(L.Get(4)).String()
	s.Print(coordArg(L, 2), coordArg(L, 3), text, colorArg(L, 5, core.ColorWhite))
	return 0
}

func (h *Host) screenClear(L *lua.LState) int {
	s := h.surfaceArg(L, 1)
	s.Clear(colorArg(L, 2, core.ColorBlack))
	return 0
}

// setClip(screen, x, y, width, height)
func (h *Host) setClip(L *lua.LState) int {
	s := h.surfaceArg(L, 1)
	s.SetClip(core.NewRect(coordArg(L, 2), coordArg(L, 3), coordArg(L, 4), coordArg(L, 5)))
	return 0
}

func (h *Host) resetClip(L *lua.LState) int {
	h.surfaceArg(L, 1).ResetClip()
	return 0
}

func (h *Host) selectScreen(L *lua.LState) int {
	id := core.ScreenID(L.CheckInt(1))
	if !id.Valid() {
		L.ArgError(1, "screen must be SCREEN_UP or SCREEN_DOWN")
	}
	h.env.Screens.Select(id)
	return 0
}

func screenWidth(L *lua.LState) int {
	L.Push(lua.LNumber(core.ScreenWidth))
	return 1
}

func screenHeight(L *lua.LState) int {
	L.Push(lua.LNumber(core.ScreenHeight))
	return 1
}

// colorNew(r, g, b) packs 5-bit components into a 15-bit color number.
func colorNew(L *lua.LState) int {
	c := core.NewColor(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3))
	L.Push(lua.LNumber(c))
	return 1
}
