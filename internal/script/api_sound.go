package script

import (
	lua "github.com/yuin/gopher-lua"
)

// soundFuncs are the sound calls a guest may make. Audio is not emulated;
// each call is accepted and reported once.
var soundFuncs = []string{
	"loadBank", "unloadBank",
	"loadMod", "unloadMod", "startMod", "pause", "resume", "stop",
	"setPosition", "startJingle", "setModVolume", "setJingleVolume",
	"setModTempo", "setModPitch",
	"loadSFX", "unloadSFX", "startSFX", "stopSFX", "releaseSFX",
	"setSFXVolume", "setSFXPanning", "setSFXPitch", "setSFXScalePitch",
}

func (h *Host) installSound(L *lua.LState) {
	mod := L.NewTable()
	for _, name := range soundFuncs {
		L.SetField(mod, name, L.NewFunction(h.soundStub(name)))
	}
	L.SetField(mod, "isActive", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LFalse)
		return 1
	}))
	L.SetGlobal("Sound", mod)
}

func (h *Host) soundStub(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		h.warnOnce("Sound."+name, "Sound."+name+" is not emulated")
		return 0
	}
}
