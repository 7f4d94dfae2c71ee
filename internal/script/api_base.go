package script

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"
)

// installBase replaces the globals that would reach outside the emulated
// device and adds the frame markers.
func (h *Host) installBase(L *lua.LState) {
	L.SetGlobal("print", L.NewFunction(h.luaPrint))
	L.SetGlobal("NB_FPS", lua.LNumber(0))

	if osMod, ok := L.GetGlobal("os").(*lua.LTable); ok {
		L.SetField(osMod, "exit", L.NewFunction(h.luaExit))
	}

	L.SetGlobal("startDrawing", L.NewFunction(startDrawing))
	L.SetGlobal("stopDrawing", L.NewFunction(h.stopDrawing))
	L.SetGlobal("render", L.NewFunction(h.stopDrawing))

	installProtectedCalls(L)
}

// protectedCalls replaces pcall and xpcall with versions that run the
// protected function in its own coroutine and pass its yields on to the
// host. The built-in ones would end the protected call at a render()
// instead of the iteration.
const protectedCalls = `
local create, resume, yield, status = coroutine.create, coroutine.resume, coroutine.yield, coroutine.status
local rawpcall, rawxpcall = pcall, xpcall

local function finish(handler, co, ok, ...)
  if not ok then
    if handler then
      return false, handler(...)
    end
    return false, ...
  end
  if status(co) == "dead" then
    return true, ...
  end
  return finish(handler, co, resume(co, yield(...)))
end

pcall = function(f, ...)
  if type(f) ~= "function" then
    return rawpcall(f, ...)
  end
  local co = create(f)
  return finish(nil, co, resume(co, ...))
end

xpcall = function(f, handler, ...)
  if type(f) ~= "function" or type(handler) ~= "function" then
    return rawxpcall(f, handler)
  end
  local co = create(f)
  return finish(handler, co, resume(co, ...))
end
`

func installProtectedCalls(L *lua.LState) {
	if err := L.DoString(protectedCalls); err != nil {
		panic(fmt.Sprintf("install protected calls: %v", err))
	}
}

func (h *Host) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	h.env.Console.Append(log.InfoLevel, strings.Join(parts, "\t"))
	return 0
}

// luaExit ends the script, never the process.
func (h *Host) luaExit(L *lua.LState) int {
	h.exited = true
	return L.Yield()
}

// startDrawing marks the start of drawing. Surfaces are retained, so there
// is nothing to prepare.
func startDrawing(L *lua.LState) int {
	return 0
}

// stopDrawing is the end of one logical iteration.
func (h *Host) stopDrawing(L *lua.LState) int {
	return L.Yield()
}
