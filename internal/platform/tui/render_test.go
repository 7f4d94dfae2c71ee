package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/luads/internal/console"
	"github.com/vovakirdan/luads/internal/core"
	"github.com/vovakirdan/luads/internal/engine"
)

func TestNewLayoutScale(t *testing.T) {
	tests := []struct {
		width, height int
		scale         int
	}{
		{300, 200, 1},
		{200, 110, 2},
		{80, 60, 4},
		{80, 24, 8},
		{10, 5, 8},
	}
	for _, tc := range tests {
		l := NewLayout(tc.width, tc.height)
		if l.Scale != tc.scale {
			t.Errorf("NewLayout(%d, %d).Scale = %d, expected %d", tc.width, tc.height, l.Scale, tc.scale)
		}
		if l.Cols != ceilDiv(core.ScreenWidth, l.Scale) || l.Rows != ceilDiv(core.ScreenHeight, 2*l.Scale) {
			t.Errorf("NewLayout(%d, %d) = %+v", tc.width, tc.height, l)
		}
		if l.ConsoleRows < 0 || l.ConsoleRows > maxConsoleRows {
			t.Errorf("ConsoleRows = %d", l.ConsoleRows)
		}
	}
}

func TestBottomPixel(t *testing.T) {
	l := NewLayout(80, 60) // scale 4: 64x24 cells, left 8, bottom row 26

	x, y, ok := l.BottomPixel(l.Left+10, l.BottomRow+5)
	if !ok || x != 42 || y != 44 {
		t.Errorf("BottomPixel = %d, %d, %t; expected 42, 44, true", x, y, ok)
	}

	outside := [][2]int{
		{l.Left - 1, l.BottomRow},
		{l.Left + l.Cols, l.BottomRow},
		{l.Left, l.TopRow},
		{l.Left, l.BottomRow + l.Rows},
	}
	for _, p := range outside {
		if _, _, ok := l.BottomPixel(p[0], p[1]); ok {
			t.Errorf("BottomPixel(%d, %d) should be outside", p[0], p[1])
		}
	}
}

func TestRendererScreen(t *testing.T) {
	s := core.NewSurface()
	s.Print(0, 0, "HI", core.ColorWhite)
	s.FillRect(core.NewRect(128, 96, 8, 8), core.ColorRed)

	l := NewLayout(80, 60)
	rd := NewRenderer(lipgloss.NewRenderer(&strings.Builder{}))
	lines := rd.Screen(s.View(), l)

	if len(lines) != l.Rows {
		t.Fatalf("got %d lines, expected %d", len(lines), l.Rows)
	}
	if !strings.HasPrefix(lines[0], strings.Repeat(" ", l.Left)+"HI") {
		t.Errorf("text overlay missing from first row: %q", lines[0])
	}
	if !strings.Contains(lines[1], halfBlock) {
		t.Errorf("pixel row has no half blocks: %q", lines[1])
	}
	if w := lipgloss.Width(lines[5]); w != l.Left+l.Cols {
		t.Errorf("row width = %d, expected %d", w, l.Left+l.Cols)
	}
}

func TestRendererConsoleTail(t *testing.T) {
	rd := NewRenderer(lipgloss.NewRenderer(&strings.Builder{}))
	buf := console.New(0, nil)
	for _, text := range []string{"one", "two", "three"} {
		buf.Append(log.InfoLevel, text)
	}

	out := rd.Console(buf.Lines(), 2, 80)
	if len(out) != 2 || !strings.Contains(out[0], "two") || !strings.Contains(out[1], "three") {
		t.Errorf("Console() = %q", out)
	}

	padded := rd.Console(buf.Lines()[:1], 3, 80)
	if len(padded) != 3 || padded[1] != "" {
		t.Errorf("Console() should pad to n rows: %q", padded)
	}
}

func TestRendererStatus(t *testing.T) {
	rd := NewRenderer(lipgloss.NewRenderer(&strings.Builder{}))
	fr := engine.Frame{
		State: engine.Paused,
		Stats: engine.Stats{Script: "demo:bounce", RenderRate: 60, UpdateRate: 0, Ticks: 42},
	}
	status := rd.Status(fr, 120)
	for _, want := range []string{"PAUSED", "demo:bounce", "R 60/", "U max/", "tick 42"} {
		if !strings.Contains(status, want) {
			t.Errorf("status %q missing %q", status, want)
		}
	}
}
