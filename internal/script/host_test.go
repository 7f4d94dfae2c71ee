package script

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/luads/internal/console"
	"github.com/vovakirdan/luads/internal/core"
	"github.com/vovakirdan/luads/internal/registry"
	"github.com/vovakirdan/luads/internal/timing"
)

type fixture struct {
	input   *core.Input
	screens *core.Screens
	console *console.Buffer
	clock   *timing.ManualClock
}

func newFixture() *fixture {
	c := console.New(0, nil)
	c.SetLevel(log.DebugLevel)
	return &fixture{
		input:   core.NewInput(core.PressPulse),
		screens: core.NewScreens(),
		console: c,
		clock:   timing.NewManualClock(),
	}
}

func (f *fixture) env() Env {
	return Env{
		Input:   f.input,
		Screens: f.screens,
		Console: f.console,
		Clock:   f.clock,
		FPS:     func() float64 { return 59.6 },
	}
}

func (f *fixture) host(t *testing.T, code string) *Host {
	t.Helper()
	h, err := NewHost(Source{Ref: "test", Name: "test.lua", Code: code}, f.env())
	if err != nil {
		t.Fatalf("NewHost() failed: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

func (f *fixture) texts() []string {
	var out []string
	for _, l := range f.console.Lines() {
		out = append(out, l.Text)
	}
	return out
}

func mustStep(t *testing.T, h *Host, expected StepResult) {
	t.Helper()
	res, err := h.Step()
	if err != nil {
		t.Fatalf("Step() fault: %v", err)
	}
	if res != expected {
		t.Fatalf("Step() = %v, expected %v", res, expected)
	}
}

func TestCompileErrorIsFault(t *testing.T) {
	f := newFixture()
	_, err := NewHost(Source{Name: "bad.lua", Code: "while true do"}, f.env())

	var fault *Fault
	if !errors.As(err, &fault) {
		t.Fatalf("NewHost() error = %v, expected *Fault", err)
	}

	if Check(Source{Name: "bad.lua", Code: "local x = "}) == nil {
		t.Error("Check accepted a syntax error")
	}
	if err := Check(Source{Name: "ok.lua", Code: "render()"}); err != nil {
		t.Errorf("Check rejected valid code: %v", err)
	}
}

func TestStepYieldsOncePerIteration(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
local n = 0
while true do
  n = n + 1
  print("tick", n)
  render()
end`)

	for i := 0; i < 3; i++ {
		mustStep(t, h, StepYielded)
	}

	got := f.texts()
	if len(got) != 3 || got[2] != "tick\t3" {
		t.Errorf("console = %q, expected three ticks", got)
	}
	if h.Steps() != 3 {
		t.Errorf("Steps() = %d, expected 3", h.Steps())
	}
}

func TestFaultOnFifthInvocation(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
local n = 0
while true do
  n = n + 1
  if n == 5 then error("boom") end
  stopDrawing()
end`)

	for i := 0; i < 4; i++ {
		mustStep(t, h, StepYielded)
	}

	res, err := h.Step()
	var fault *Fault
	if !errors.As(err, &fault) {
		t.Fatalf("fifth Step() error = %v, expected *Fault", err)
	}
	if res != StepFinished || !h.Finished() {
		t.Errorf("host not finished after fault")
	}
	if fault.Msg == "" {
		t.Error("fault message is empty")
	}

	res, err = h.Step()
	if res != StepFinished || err != nil {
		t.Errorf("Step() after fault = %v, %v", res, err)
	}
}

func TestScriptEndFinishes(t *testing.T) {
	f := newFixture()
	h := f.host(t, `print("once")`)
	mustStep(t, h, StepFinished)
}

func TestOsExitStopsScriptOnly(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
render()
os.exit(3)
print("unreachable")`)

	mustStep(t, h, StepYielded)
	mustStep(t, h, StepFinished)
	mustStep(t, h, StepFinished)

	if len(f.texts()) != 0 {
		t.Errorf("code after os.exit ran: %q", f.texts())
	}
}

func TestRenderInsidePcallYieldsToHost(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
local n = 0
local ok, err = pcall(function()
  while true do
    n = n + 1
    print(n)
    render()
    if n == 3 then error("done") end
  end
end)
print(ok, err)`)

	for i := 0; i < 3; i++ {
		mustStep(t, h, StepYielded)
	}
	mustStep(t, h, StepFinished)

	got := f.texts()
	if len(got) != 4 || got[2] != "3" {
		t.Fatalf("console = %q", got)
	}
	if !strings.HasPrefix(got[3], "false\t") || !strings.HasSuffix(got[3], "done") {
		t.Errorf("pcall result = %q", got[3])
	}
}

func TestProtectedCalls(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		yields   int
		expected []string
	}{
		{
			name:     "pcall returns values",
			code:     `print(pcall(function(a, b) render(); return a + b end, 2, 3))`,
			yields:   1,
			expected: []string{"true\t5"},
		},
		{
			name:     "pcall of a non-function",
			code:     `print(pcall(42))`,
			expected: []string{"false\tattempt to call a number value"},
		},
		{
			name: "xpcall handler sees the error",
			code: `
print(xpcall(function()
  render()
  error({code = 7})
end, function(e) return "handled " .. e.code end))`,
			yields:   1,
			expected: []string{"false\thandled 7"},
		},
		{
			name: "delay inside pcall",
			code: `
pcall(function() delay(100) print("woke") end)
render()`,
			yields:   2,
			expected: []string{"woke"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			h := f.host(t, tc.code)

			for i := 0; i < tc.yields; i++ {
				f.clock.Advance(time.Second)
				if res, err := h.Step(); err != nil || res == StepFinished {
					t.Fatalf("Step() %d = %v, %v", i, res, err)
				}
			}
			mustStep(t, h, StepFinished)

			got := f.texts()
			if len(got) != len(tc.expected) {
				t.Fatalf("console = %q, expected %q", got, tc.expected)
			}
			for i := range tc.expected {
				if got[i] != tc.expected[i] {
					t.Errorf("line %d = %q, expected %q", i, got[i], tc.expected[i])
				}
			}
		})
	}
}

func TestOsExitInsidePcall(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
pcall(function() os.exit() end)
print("unreachable")`)

	mustStep(t, h, StepFinished)
	if len(f.texts()) != 0 {
		t.Errorf("code after os.exit ran: %q", f.texts())
	}
}

func TestKeysReflectSnapshot(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
while true do
  Controls.read()
  local a = Keys.newPress.A
  Controls.read()
  print(tostring(Keys.held.A), tostring(a), tostring(Keys.newPress.A), tostring(Keys.released.A))
  render()
end`)

	f.input.BeginUpdateTick(core.RawInput{Buttons: core.ButtonSet(0).Set(core.ButtonA)})
	mustStep(t, h, StepYielded)
	f.input.BeginUpdateTick(core.RawInput{Buttons: core.ButtonSet(0).Set(core.ButtonA)})
	mustStep(t, h, StepYielded)
	f.input.BeginUpdateTick(core.RawInput{})
	mustStep(t, h, StepYielded)

	expected := []string{
		"true\ttrue\ttrue\tfalse",
		"true\tfalse\tfalse\tfalse",
		"false\tfalse\tfalse\ttrue",
	}
	got := f.texts()
	if len(got) != len(expected) {
		t.Fatalf("console = %q", got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("tick %d: %q, expected %q", i, got[i], expected[i])
		}
	}
}

func TestStylusTable(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
while true do
  print(Stylus.X, Stylus.Y, tostring(Stylus.held), tostring(Stylus.newPress), Stylus.deltaX, Stylus.deltaY)
  render()
end`)

	f.input.BeginUpdateTick(core.RawInput{Stylus: core.StylusSample{X: 10, Y: 20, Down: true}})
	mustStep(t, h, StepYielded)
	f.input.BeginUpdateTick(core.RawInput{Stylus: core.StylusSample{X: 13, Y: 18, Down: true}})
	mustStep(t, h, StepYielded)

	got := f.texts()
	if got[0] != "10\t20\ttrue\ttrue\t0\t0" {
		t.Errorf("first tick = %q", got[0])
	}
	if got[1] != "13\t18\ttrue\tfalse\t3\t-2" {
		t.Errorf("second tick = %q", got[1])
	}
}

func TestScreenDrawing(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
local red = Color.new(31, 0, 0)
screen.drawFillRect(SCREEN_UP, 0, 0, 3, 3, red)
screen.setClip(SCREEN_DOWN, 10, 10, 5, 5)
screen.drawLine(SCREEN_DOWN, 0, 12, 50, 12, red)
screen.print(SCREEN_DOWN, 4, 8, "hi")
screen.select(SCREEN_UP)
screen.drawPoint(nil, 100, 100, red)
print(screen.getWidth(), screen.getHeight())
render()`)

	mustStep(t, h, StepYielded)

	top, bottom := f.screens.Present()
	if top.At(3, 3) != core.ColorRed || top.At(4, 4) != core.ColorBlack {
		t.Error("filled rect not drawn with inclusive corners")
	}
	if top.At(100, 100) != core.ColorRed {
		t.Error("nil screen argument should draw on the selected screen")
	}
	if bottom.At(9, 12) != core.ColorBlack || bottom.At(10, 12) != core.ColorRed || bottom.At(15, 12) != core.ColorBlack {
		t.Error("line not clipped to the clip rectangle")
	}
	if runs := bottom.Text(); len(runs) != 0 {
		t.Errorf("text outside the clip was kept: %+v", runs)
	}
	if got := f.texts(); len(got) != 1 || got[0] != "256\t192" {
		t.Errorf("console = %q", got)
	}
}

func TestInvalidScreenIsFault(t *testing.T) {
	f := newFixture()
	h := f.host(t, `screen.drawPoint(7, 0, 0, 0)`)

	_, err := h.Step()
	var fault *Fault
	if !errors.As(err, &fault) {
		t.Fatalf("Step() error = %v, expected *Fault", err)
	}
}

func TestFarCoordinatesAreClamped(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
screen.drawLine(SCREEN_DOWN, 0, 0, 1e300, 0)
screen.drawLine(SCREEN_DOWN, 5, -1e300, 5, 4e8)
screen.drawFillRect(SCREEN_UP, -1e300, 100, 1e300, 100)
screen.drawPoint(SCREEN_UP, 1e300, 1e300)
render()`)

	var res StepResult
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err = h.Step()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drawing far coordinates did not return")
	}
	if err != nil || res != StepYielded {
		t.Fatalf("Step() = %v, %v", res, err)
	}

	top, bottom := f.screens.Present()
	if bottom.At(0, 0) != core.ColorWhite || bottom.At(255, 0) != core.ColorWhite {
		t.Error("horizontal line not drawn to the screen edge")
	}
	if bottom.At(5, 191) != core.ColorWhite || bottom.At(6, 191) != core.ColorBlack {
		t.Error("vertical line not drawn to the screen edge")
	}
	if top.At(0, 100) != core.ColorWhite || top.At(255, 100) != core.ColorWhite || top.At(0, 99) != core.ColorBlack {
		t.Error("fill with far corners not clipped to the screen")
	}
	if top.At(255, 191) != core.ColorBlack {
		t.Error("far point was drawn")
	}
}

func TestNonFiniteCoordinateIsFault(t *testing.T) {
	calls := []string{
		`screen.drawPoint(SCREEN_DOWN, 0/0, 0)`,
		`screen.drawLine(SCREEN_DOWN, 0, 0, math.huge, 0)`,
		`screen.drawRect(SCREEN_DOWN, -math.huge, 0, 10, 10)`,
		`screen.setClip(SCREEN_DOWN, 0, 0, math.huge, 10)`,
		`screen.print(SCREEN_DOWN, 0/0, 0, "x")`,
	}
	for _, call := range calls {
		t.Run(call, func(t *testing.T) {
			f := newFixture()
			h := f.host(t, call)

			_, err := h.Step()
			var fault *Fault
			if !errors.As(err, &fault) {
				t.Fatalf("Step() error = %v, expected *Fault", err)
			}
			if !strings.Contains(fault.Msg, "finite") {
				t.Errorf("fault = %q", fault.Msg)
			}
		})
	}
}

func TestTimerUsesHostClock(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
local tm = Timer.new()
print(tm:time())
tm:start()
render()
print(tm:time())
tm:stop()
render()
print(tm:time())
tm:reset()
print(tm:time())`)

	mustStep(t, h, StepYielded)
	f.clock.Advance(250 * time.Millisecond)
	mustStep(t, h, StepYielded)
	f.clock.Advance(time.Second)
	mustStep(t, h, StepFinished)

	expected := []string{"0", "250", "250", "0"}
	got := f.texts()
	if len(got) != len(expected) {
		t.Fatalf("console = %q", got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("line %d = %q, expected %q", i, got[i], expected[i])
		}
	}
}

func TestDelaySuspendsUntilDeadline(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
print("before")
delay(100)
print("after")
render()`)

	mustStep(t, h, StepSleeping)
	f.clock.Advance(50 * time.Millisecond)
	mustStep(t, h, StepSleeping)
	if h.Steps() != 1 {
		t.Errorf("guest resumed while sleeping: Steps() = %d", h.Steps())
	}

	f.clock.Advance(50 * time.Millisecond)
	mustStep(t, h, StepYielded)

	got := f.texts()
	if len(got) != 2 || got[1] != "after" {
		t.Errorf("console = %q", got)
	}
}

func TestNbFps(t *testing.T) {
	f := newFixture()
	h := f.host(t, `print(NB_FPS)`)
	mustStep(t, h, StepFinished)

	if got := f.texts(); len(got) != 1 || got[0] != "60" {
		t.Errorf("NB_FPS printed %q, expected 60", got)
	}
}

func TestSoundStubsLogOnce(t *testing.T) {
	f := newFixture()
	h := f.host(t, `
Sound.loadBank("x")
Sound.startSFX(1)
Sound.startSFX(1)
print(tostring(Sound.isActive()))`)
	mustStep(t, h, StepFinished)

	if n := f.console.Count(log.DebugLevel); n != 2 {
		t.Errorf("debug lines = %d, expected 2", n)
	}
	if f.console.Count(log.InfoLevel) != 1 {
		t.Error("print output missing")
	}
}

func TestGlobalsDoNotLeakBetweenHosts(t *testing.T) {
	f := newFixture()
	first := f.host(t, `leaked = 42`)
	mustStep(t, first, StepFinished)

	second := f.host(t, `print(tostring(leaked))`)
	mustStep(t, second, StepFinished)

	if got := f.texts(); len(got) != 1 || got[0] != "nil" {
		t.Errorf("second host saw %q", got)
	}
}

func TestResolve(t *testing.T) {
	registry.Register("zz-script-test", "Script Test", "render()")

	src, err := Resolve("demo:zz-script-test")
	if err != nil {
		t.Fatalf("Resolve(demo) failed: %v", err)
	}
	if !src.Builtin() || src.Code != "render()" {
		t.Errorf("Resolve(demo) = %+v", src)
	}

	path := filepath.Join(t.TempDir(), "game.lua")
	if err := os.WriteFile(path, []byte("print(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err = Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(file) failed: %v", err)
	}
	if src.Builtin() || src.Name != "game.lua" || src.Path != path {
		t.Errorf("Resolve(file) = %+v", src)
	}

	tests := []struct {
		name string
		ref  string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.lua")},
		{"unknown demo", "demo:does-not-exist"},
		{"empty", "  "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.ref)
			var resErr *ResolutionError
			if !errors.As(err, &resErr) {
				t.Fatalf("Resolve(%q) error = %v, expected *ResolutionError", tc.ref, err)
			}
		})
	}

	_, err = Resolve(filepath.Join(t.TempDir(), "nope.lua"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file error %v does not wrap fs.ErrNotExist", err)
	}
}
