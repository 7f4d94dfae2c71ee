package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/luads/internal/console"
	"github.com/vovakirdan/luads/internal/core"
	"github.com/vovakirdan/luads/internal/engine"
)

// Layout constants
const (
	maxScale       = 8 // Coarsest downsampling step
	chromeRows     = 3 // Status line, screen gap, help line
	minConsoleRows = 2
	maxConsoleRows = 8
	halfBlock      = "▀"
)

// Layout places both screens in the terminal. Each terminal cell shows two
// vertically stacked samples with a half block: the upper one as
// foreground, the lower one as background. Scale is the number of device
// pixels per cell column; a cell row covers 2*Scale device rows.
type Layout struct {
	Width, Height int
	Scale         int
	Cols, Rows    int // Cells per screen
	Left          int // Column of the first screen cell
	TopRow        int // Terminal row of the first top-screen row
	BottomRow     int // Terminal row of the first bottom-screen row
	ConsoleRows   int
}

// NewLayout picks the finest scale at which both screens and a small
// console fit in width x height.
func NewLayout(width, height int) Layout {
	l := Layout{Width: width, Height: height, Scale: maxScale}
	for s := 1; s <= maxScale; s++ {
		cols := ceilDiv(core.ScreenWidth, s)
		rows := ceilDiv(core.ScreenHeight, 2*s)
		if cols <= width && 2*rows+chromeRows+minConsoleRows <= height {
			l.Scale = s
			break
		}
	}

	l.Cols = ceilDiv(core.ScreenWidth, l.Scale)
	l.Rows = ceilDiv(core.ScreenHeight, 2*l.Scale)
	l.Left = max(0, (width-l.Cols)/2)
	l.TopRow = 1
	l.BottomRow = l.TopRow + l.Rows + 1
	l.ConsoleRows = core.Clamp(height-2*l.Rows-chromeRows, 0, maxConsoleRows)
	return l
}

// BottomPixel maps a terminal cell to a pixel on the bottom screen, the
// touch screen. ok is false outside it.
func (l Layout) BottomPixel(col, row int) (x, y int, ok bool) {
	cx, cy := col-l.Left, row-l.BottomRow
	if cx < 0 || cx >= l.Cols || cy < 0 || cy >= l.Rows {
		return 0, 0, false
	}
	x = core.Clamp(cx*l.Scale+l.Scale/2, 0, core.ScreenWidth-1)
	y = core.Clamp(cy*2*l.Scale+l.Scale, 0, core.ScreenHeight-1)
	return x, y, true
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

type cellKey struct {
	fg, bg core.Color
}

type textCell struct {
	r     rune
	color core.Color
}

// Renderer draws frames as styled strings. It caches one style per
// foreground/background pair.
type Renderer struct {
	r      *lipgloss.Renderer
	cells  map[cellKey]lipgloss.Style
	status lipgloss.Style
	state  map[engine.RunState]lipgloss.Style
	levels map[log.Level]lipgloss.Style
	gap    lipgloss.Style
}

// NewRenderer creates a renderer. A nil lipgloss renderer uses the default
// one for stdout; SSH sessions pass their own.
func NewRenderer(r *lipgloss.Renderer) *Renderer {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return &Renderer{
		r:      r,
		cells:  make(map[cellKey]lipgloss.Style),
		status: r.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")),
		state: map[engine.RunState]lipgloss.Style{
			engine.Running: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			engine.Paused:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
			engine.Errored: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
			engine.Stopped: r.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
			engine.Loaded:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		},
		levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: r.NewStyle().Foreground(lipgloss.Color("243")),
			log.InfoLevel:  r.NewStyle().Foreground(lipgloss.Color("252")),
			log.WarnLevel:  r.NewStyle().Foreground(lipgloss.Color("11")),
			log.ErrorLevel: r.NewStyle().Foreground(lipgloss.Color("9")),
		},
		gap: r.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

func (rd *Renderer) cellStyle(fg, bg core.Color) lipgloss.Style {
	k := cellKey{fg, bg}
	st, ok := rd.cells[k]
	if !ok {
		st = rd.r.NewStyle().
			Foreground(lipgloss.Color(fg.Hex())).
			Background(lipgloss.Color(bg.Hex()))
		rd.cells[k] = st
	}
	return st
}

// Screen renders one view at the layout's scale, one string per cell row.
// Text runs are overlaid one character per cell.
func (rd *Renderer) Screen(v core.View, l Layout) []string {
	s := l.Scale
	text := make(map[[2]int]textCell)
	for _, run := range v.Text() {
		col, row := run.X/s, run.Y/(2*s)
		i := 0
		for _, r := range run.Text {
			text[[2]int{col + i, row}] = textCell{r: r, color: run.Color}
			i++
		}
	}

	pad := strings.Repeat(" ", l.Left)
	lines := make([]string, l.Rows)
	for cy := 0; cy < l.Rows; cy++ {
		var b strings.Builder
		b.WriteString(pad)

		var run strings.Builder
		var cur cellKey
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(rd.cellStyle(cur.fg, cur.bg).Render(run.String()))
				run.Reset()
			}
		}

		for cx := 0; cx < l.Cols; cx++ {
			upper := v.At(cx*s, cy*2*s)
			lower := v.At(cx*s, cy*2*s+s)

			k, glyph := cellKey{upper, lower}, halfBlock
			if tc, ok := text[[2]int{cx, cy}]; ok {
				k, glyph = cellKey{tc.color, upper}, string(tc.r)
			}
			if k != cur {
				flush()
				cur = k
			}
			run.WriteString(glyph)
		}
		flush()
		lines[cy] = b.String()
	}
	return lines
}

// Status renders the one-line status bar.
func (rd *Renderer) Status(fr engine.Frame, width int) string {
	st := fr.Stats
	name := st.Script
	if name == "" {
		name = "(no script)"
	}
	state := rd.state[fr.State].Render(strings.ToUpper(fr.State.String()))
	info := fmt.Sprintf(" %s  R %s/%.1f  U %s/%.1f  tick %d  %s %s ",
		name,
		rateLabel(st.RenderRate), st.MeasuredFPS,
		rateLabel(st.UpdateRate), st.MeasuredUPS,
		st.Ticks, st.PressPolicy, st.PausePolicy,
	)
	line := " " + state + rd.status.Render(info)
	return rd.status.Width(width).Render(line)
}

func rateLabel(rate int) string {
	if rate == 0 {
		return "max"
	}
	return fmt.Sprint(rate)
}

// Console renders the newest n console lines, truncated to width.
func (rd *Renderer) Console(lines []console.Line, n, width int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, 0, n)
	for _, ln := range lines {
		st, ok := rd.levels[ln.Level]
		if !ok {
			st = rd.levels[log.InfoLevel]
		}
		if width > 0 {
			st = st.MaxWidth(width)
		}
		out = append(out, st.Render(ln.String()))
	}
	for len(out) < n {
		out = append(out, "")
	}
	return out
}

// Frame renders a full frame: status, top screen, gap, bottom screen and
// console.
func (rd *Renderer) Frame(fr engine.Frame, l Layout) string {
	var b strings.Builder
	b.WriteString(rd.Status(fr, l.Width))
	b.WriteString("\n")
	for _, line := range rd.Screen(fr.Top, l) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(rd.gap.Render(strings.Repeat(" ", l.Left) + strings.Repeat("─", l.Cols)))
	b.WriteString("\n")
	for _, line := range rd.Screen(fr.Bottom, l) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, line := range rd.Console(fr.Console, l.ConsoleRows, l.Width) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
