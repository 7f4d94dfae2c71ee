package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/luads/internal/config"
	_ "github.com/vovakirdan/luads/internal/demos"
	"github.com/vovakirdan/luads/internal/engine"
	"github.com/vovakirdan/luads/internal/script"
)

func TestResolveDemo(t *testing.T) {
	items := MenuItems(nil, true)
	if len(items) == 0 {
		t.Fatal("no demos registered")
	}

	src, err := ResolveDemo(items[0].Ref)
	if err != nil {
		t.Fatalf("ResolveDemo(%q) failed: %v", items[0].Ref, err)
	}
	if src.Code == "" {
		t.Error("demo has no code")
	}

	var resErr *script.ResolutionError
	if _, err := ResolveDemo("/etc/passwd"); !errors.As(err, &resErr) {
		t.Errorf("ResolveDemo(file) error = %v, expected a ResolutionError", err)
	}
}

func newTestSession(t *testing.T) SessionModel {
	t.Helper()
	settings := config.DefaultSettings()
	keys, err := KeyMapFromSettings(settings)
	if err != nil {
		t.Fatalf("KeyMapFromSettings() failed: %v", err)
	}
	return NewSessionModel(SessionConfig{
		Settings: settings,
		Keys:     keys,
		Renderer: lipgloss.NewRenderer(&strings.Builder{}),
		Width:    80,
		Height:   60,
	})
}

func sendSession(t *testing.T, m SessionModel, msg tea.Msg) (SessionModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	sm, ok := next.(SessionModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return sm, cmd
}

func TestSessionMenuRunBack(t *testing.T) {
	m := newTestSession(t)
	if !strings.Contains(m.View(), "L U A D S") {
		t.Fatal("session should start on the menu")
	}

	m, cmd := sendSession(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.run == nil || m.active.eng == nil {
		t.Fatal("selecting a demo did not start it")
	}
	if cmd == nil {
		t.Error("starting a run should schedule a tick")
	}
	if m.active.eng.State() != engine.Running {
		t.Errorf("state = %v, expected running", m.active.eng.State())
	}

	eng := m.active.eng
	m, _ = sendSession(t, m, TickMsg{eng: eng})
	m, _ = sendSession(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.run != nil || m.active.eng != nil {
		t.Error("back did not return to the menu")
	}
	if m.quitting {
		t.Error("back should not quit the session")
	}
	if eng.State().Live() {
		t.Error("engine still live after leaving the run")
	}
}

func TestSessionQuitFromMenu(t *testing.T) {
	m := newTestSession(t)
	m, cmd := sendSession(t, m, runeKey("q"))
	if !m.quitting || cmd == nil {
		t.Error("q on the menu should quit the session")
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestSessionCloseStopsEngine(t *testing.T) {
	m := newTestSession(t)
	m, _ = sendSession(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	eng := m.active.eng
	if eng == nil {
		t.Fatal("selecting a demo did not start it")
	}

	// A copy held elsewhere, as the SSH server does, closes the same run.
	holder := m
	m, _ = sendSession(t, m, TickMsg{eng: eng})
	holder.Close()

	if eng.State().Live() {
		t.Error("Close left the engine live")
	}
	if m.active.eng != nil {
		t.Error("Close did not clear the shared run")
	}
}
