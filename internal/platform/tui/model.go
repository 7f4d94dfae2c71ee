package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/luads/internal/console"
	"github.com/vovakirdan/luads/internal/core"
	"github.com/vovakirdan/luads/internal/engine"
)

// Options configures a run model.
type Options struct {
	Keys  KeyMap
	Latch *Latch // Must be the engine's InputSource

	Logger        *log.Logger
	Renderer      *lipgloss.Renderer // nil for the local terminal
	ScreenshotDir string             // empty disables screenshots

	// AllowBack makes the back key return to the caller instead of
	// quitting. Used when the model is embedded in a menu session.
	AllowBack bool

	Width, Height int
}

// Model is the Bubble Tea model that drives one engine. Every tick runs
// one host-loop iteration; keys are latched into emulated buttons and the
// mouse acts as the stylus on the bottom screen.
type Model struct {
	eng     *engine.Engine
	keys    KeyMap
	latch   *Latch
	render  *Renderer
	help    help.Model
	logger  *log.Logger
	shotDir string

	layout     Layout
	frame      engine.Frame
	notice     string
	allowBack  bool
	quitting   bool
	backToMenu bool
}

// NewModel creates a model for an engine that already holds a script.
func NewModel(eng *engine.Engine, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Latch == nil {
		opts.Latch = NewLatch(0)
	}
	h := help.New()
	h.ShowAll = false

	m := Model{
		eng:       eng,
		keys:      opts.Keys,
		latch:     opts.Latch,
		render:    NewRenderer(opts.Renderer),
		help:      h,
		logger:    opts.Logger,
		shotDir:   opts.ScreenshotDir,
		allowBack: opts.AllowBack,
		frame:     eng.Frame(),
	}
	if opts.Width > 0 && opts.Height > 0 {
		m.layout = NewLayout(opts.Width, opts.Height)
		m.help.Width = opts.Width
	}
	return m
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return nextTick(m.eng)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.layout = NewLayout(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.frame = m.eng.Frame()
		return m, nil

	case TickMsg:
		if msg.eng != m.eng {
			return m, nil
		}
		return m.handleTick()
	}

	return m, nil
}

// handleKey routes shell controls to engine commands and everything else
// to the button latch.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.keys.Controls
	stats := m.eng.Stats()

	switch {
	case key.Matches(msg, c.Quit):
		m.eng.Submit(engine.Quit())
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, c.Back):
		if m.allowBack {
			m.backToMenu = true
			m.latch.Release()
			return m, nil
		}
		m.eng.Submit(engine.Quit())
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, c.Pause):
		m.eng.Submit(engine.TogglePause())
	case key.Matches(msg, c.Restart):
		m.eng.Submit(engine.Restart())
	case key.Matches(msg, c.Reload):
		m.eng.Submit(engine.Reload())
	case key.Matches(msg, c.RenderUp):
		m.eng.Submit(engine.AdjustRenderRate(rateStep))
	case key.Matches(msg, c.RenderDown):
		m.eng.Submit(engine.AdjustRenderRate(-rateStep))
	case key.Matches(msg, c.UpdateUp):
		m.eng.Submit(engine.AdjustUpdateRate(rateStep))
	case key.Matches(msg, c.UpdateDown):
		m.eng.Submit(engine.AdjustUpdateRate(-rateStep))
	case key.Matches(msg, c.Sticky):
		m.eng.Submit(engine.SetStickyPress(stats.PressPolicy != core.PressSticky))
	case key.Matches(msg, c.PausePolicy):
		next := core.PauseBlank
		if stats.PausePolicy == core.PauseBlank {
			next = core.PauseFreeze
		}
		m.eng.Submit(engine.SetPausePolicy(next))
	case key.Matches(msg, c.LogLevel):
		level := (console.IntFromLevel(m.eng.Console().Level()) + 1) % 4
		m.eng.Submit(engine.SetLogLevel(level))
		m.notice = "console level " + console.LevelFromInt(level).String()
	case key.Matches(msg, c.Screenshot):
		m.notice = m.saveScreenshot()
	case key.Matches(msg, c.Help):
		m.help.ShowAll = !m.help.ShowAll

	default:
		if b, ok := m.keys.Button(msg); ok {
			m.latch.Press(b)
		}
	}

	return m, nil
}

// handleMouse maps the left button on the bottom screen to the stylus.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	x, y, inside := m.layout.BottomPixel(msg.X, msg.Y)
	cur := m.latch.Stylus()

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && inside {
			m.latch.Pointer(x, y, true)
		}
	case tea.MouseActionMotion:
		if cur.Down && inside {
			m.latch.Pointer(x, y, true)
		}
	case tea.MouseActionRelease:
		if cur.Down {
			m.latch.Pointer(cur.X, cur.Y, false)
		}
	}
	return m, nil
}

// handleTick runs one host-loop iteration.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.quitting || m.backToMenu {
		return m, nil
	}

	r := m.eng.Iterate()
	if r.Rendered {
		m.frame = r.Frame
	}
	if r.Quit {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nextTick(m.eng)
}

func (m Model) saveScreenshot() string {
	if m.shotDir == "" {
		return "screenshots disabled"
	}
	path, err := SaveScreenshot(m.shotDir, m.frame)
	if err != nil {
		m.logger.Warn("screenshot failed", "err", err)
		return "screenshot failed"
	}
	m.logger.Info("screenshot saved", "path", path)
	return "saved " + path
}

// View renders the current frame.
func (m Model) View() string {
	if m.quitting || m.layout.Width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.render.Frame(m.frame, m.layout))

	helpStyle := m.render.r.NewStyle().Foreground(lipgloss.Color("241"))
	line := m.help.View(m.keys.Controls)
	if m.notice != "" {
		line = m.notice + "  " + line
	}
	b.WriteString(helpStyle.Render(line))

	return b.String()
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run starts the Bubble Tea program for eng and blocks until it exits.
func Run(eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(
		NewModel(eng, opts),
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Mouse drives the stylus
	)

	_, err := p.Run()
	return err
}
