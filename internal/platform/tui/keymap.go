package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/luads/internal/config"
	"github.com/vovakirdan/luads/internal/core"
)

// rateStep is how much one rate key changes a target rate.
const rateStep = 10

// ControlKeyMap holds the shell controls. They never reach the guest.
type ControlKeyMap struct {
	Pause       key.Binding
	Restart     key.Binding
	Reload      key.Binding
	RenderUp    key.Binding
	RenderDown  key.Binding
	UpdateUp    key.Binding
	UpdateDown  key.Binding
	Sticky      key.Binding
	PausePolicy key.Binding
	LogLevel    key.Binding
	Screenshot  key.Binding
	Help        key.Binding
	Back        key.Binding
	Quit        key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ControlKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Restart, k.Reload, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ControlKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Restart, k.Reload, k.Screenshot},
		{k.RenderUp, k.RenderDown, k.UpdateUp, k.UpdateDown},
		{k.Sticky, k.PausePolicy, k.LogLevel},
		{k.Help, k.Back, k.Quit},
	}
}

func (k ControlKeyMap) all() []key.Binding {
	return []key.Binding{
		k.Pause, k.Restart, k.Reload, k.RenderUp, k.RenderDown, k.UpdateUp, k.UpdateDown,
		k.Sticky, k.PausePolicy, k.LogLevel, k.Screenshot, k.Help, k.Back, k.Quit,
	}
}

// DefaultControlKeyMap returns the default shell controls.
func DefaultControlKeyMap() ControlKeyMap {
	return ControlKeyMap{
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		Restart: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "restart"),
		),
		Reload: key.NewBinding(
			key.WithKeys("f5", "ctrl+l"),
			key.WithHelp("f5", "reload"),
		),
		RenderUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "render +10"),
		),
		RenderDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "render -10"),
		),
		UpdateUp: key.NewBinding(
			key.WithKeys("}"),
			key.WithHelp("}", "update +10"),
		),
		UpdateDown: key.NewBinding(
			key.WithKeys("{"),
			key.WithHelp("{", "update -10"),
		),
		Sticky: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "sticky press"),
		),
		PausePolicy: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("f3", "pause freeze/blank"),
		),
		LogLevel: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("f4", "log level"),
		),
		Screenshot: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "screenshot"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// KeyMap translates terminal keys into emulated buttons and shell controls.
type KeyMap struct {
	Controls ControlKeyMap
	buttons  map[string]core.Button
}

// NewKeyMap builds a key map from configured button bindings. A terminal
// key bound twice, or bound to both a button and a control, is an error.
func NewKeyMap(bindings []config.Binding, controls ControlKeyMap) (KeyMap, error) {
	reserved := make(map[string]bool)
	for _, b := range controls.all() {
		for _, k := range b.Keys() {
			reserved[k] = true
		}
	}

	buttons := make(map[string]core.Button)
	for _, b := range bindings {
		for _, k := range b.Keys {
			if reserved[k] {
				return KeyMap{}, fmt.Errorf("key %q for %s is a shell control", k, b.Button)
			}
			if prev, ok := buttons[k]; ok && prev != b.Button {
				return KeyMap{}, fmt.Errorf("key %q bound to both %s and %s", k, prev, b.Button)
			}
			buttons[k] = b.Button
		}
	}
	return KeyMap{Controls: controls, buttons: buttons}, nil
}

// KeyMapFromSettings builds a key map from loaded settings and the default
// controls.
func KeyMapFromSettings(s config.Settings) (KeyMap, error) {
	bindings, err := s.Bindings()
	if err != nil {
		return KeyMap{}, err
	}
	return NewKeyMap(bindings, DefaultControlKeyMap())
}

// Button returns the emulated button bound to msg, if any.
func (km KeyMap) Button(msg tea.KeyMsg) (core.Button, bool) {
	b, ok := km.buttons[msg.String()]
	return b, ok
}

// ButtonKeys returns the terminal keys bound to b.
func (km KeyMap) ButtonKeys(b core.Button) []string {
	var keys []string
	for k, bb := range km.buttons {
		if bb == b {
			keys = append(keys, k)
		}
	}
	return keys
}

// Latch turns terminal key presses into held buttons. Terminals report
// presses but no releases, so a button stays held for the hold time after
// its last press; auto-repeat keeps it held.
type Latch struct {
	hold   time.Duration
	now    func() time.Time
	until  map[core.Button]time.Time
	seen   core.ButtonSet // pressed since the last sample
	stylus core.StylusSample
}

// NewLatch creates a latch with the given hold time.
func NewLatch(hold time.Duration) *Latch {
	return &Latch{
		hold:  hold,
		now:   time.Now,
		until: make(map[core.Button]time.Time),
	}
}

// Press marks b as held for the hold time. The next sample reports it even
// when the hold time has already passed.
func (l *Latch) Press(b core.Button) {
	l.until[b] = l.now().Add(l.hold)
	l.seen = l.seen.Set(b)
}

// Pointer records the stylus position and contact.
func (l *Latch) Pointer(x, y int, down bool) {
	l.stylus = core.StylusSample{X: x, Y: y, Down: down}
}

// Stylus returns the last recorded pointer sample.
func (l *Latch) Stylus() core.StylusSample {
	return l.stylus
}

// Release drops every held button and lifts the stylus.
func (l *Latch) Release() {
	clear(l.until)
	l.seen = 0
	l.stylus.Down = false
}

// Sample implements engine.InputSource.
func (l *Latch) Sample() core.RawInput {
	now := l.now()
	set := l.seen
	l.seen = 0
	for b, t := range l.until {
		if now.Before(t) {
			set = set.Set(b)
		} else {
			delete(l.until, b)
		}
	}
	return core.RawInput{Buttons: set, Stylus: l.stylus}
}
