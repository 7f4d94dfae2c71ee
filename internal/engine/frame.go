package engine

import (
	"image"
	"image/draw"

	"github.com/vovakirdan/luads/internal/console"
	"github.com/vovakirdan/luads/internal/core"
	"github.com/vovakirdan/luads/internal/timing"
)

// InputSource is sampled once per iteration that runs update ticks.
type InputSource interface {
	Sample() core.RawInput
}

// InputFunc adapts a function to InputSource.
type InputFunc func() core.RawInput

// Sample calls f.
func (f InputFunc) Sample() core.RawInput {
	return f()
}

// Presenter receives every rendered frame.
type Presenter interface {
	Present(Frame)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Frame)

// Present calls f.
func (f PresenterFunc) Present(fr Frame) {
	f(fr)
}

// Stats is what the shell shows next to the screens.
type Stats struct {
	Script      string
	RenderRate  int // target, 0 = unlimited
	UpdateRate  int // target, 0 = unlimited
	MeasuredFPS float64
	MeasuredUPS float64
	Ticks       uint64 // update ticks since the last restart
	PressPolicy core.PressPolicy
	PausePolicy core.PausePolicy
}

// Frame is one presentation: both screens, the console and the status.
// Views are snapshots and are never modified after the frame is built.
type Frame struct {
	Top     core.View
	Bottom  core.View
	Console []console.Line
	State   RunState
	Stats   Stats
}

// Image stacks the top screen over the bottom one, the way the device
// holds them.
func (f Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, core.ScreenWidth, 2*core.ScreenHeight))
	draw.Draw(img, image.Rect(0, 0, core.ScreenWidth, core.ScreenHeight), f.Top.Image(), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, core.ScreenHeight, core.ScreenWidth, 2*core.ScreenHeight), f.Bottom.Image(), image.Point{}, draw.Src)
	return img
}

// Report describes what one iteration did.
type Report struct {
	Budget   timing.FrameBudget
	Updates  int // guest steps actually performed
	Rendered bool
	Frame    Frame // valid when Rendered
	State    RunState
	Quit     bool
}
