package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/luads/internal/config"
	"github.com/vovakirdan/luads/internal/engine"
	"github.com/vovakirdan/luads/internal/registry"
	"github.com/vovakirdan/luads/internal/script"
	"github.com/vovakirdan/luads/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.luads/host_key.
	HostKeyPath string

	// DBPath is the path to the run history database.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Settings configure every session's engine and key map.
	Settings config.Settings

	// Logger defaults to a timestamped stderr logger.
	Logger *log.Logger
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		DBPath:      "~/.luads/history.db",
		IdleTimeout: 30 * time.Minute,
		Settings:    config.DefaultSettings(),
	}
}

// SSHServer serves the built-in demos over SSH. Every session gets its
// own engine; scripts from the server's file system are never loaded.
type SSHServer struct {
	config SSHServerConfig
	keys   KeyMap
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "luads-ssh",
		})
	}

	if _, err := cfg.Settings.Runtime(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	keys, err := KeyMapFromSettings(cfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("invalid key map: %w", err)
	}

	// Open storage
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open history database", "error", err)
		// Continue without storage
		store = nil
	}

	srv := &SSHServer{
		config: cfg,
		keys:   keys,
		store:  store,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		dir, dirErr := config.DataDir()
		if dirErr != nil {
			return nil, fmt.Errorf("cannot get data directory: %w", dirErr)
		}
		hostKeyPath = filepath.Join(dir, "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			srv.cleanupMiddleware,
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	model := NewSessionModel(SessionConfig{
		Store:    s.store,
		Settings: s.config.Settings,
		Keys:     s.keys,
		Logger:   s.logger.With("user", sshSession.User()),
		Renderer: bubbletea.MakeRenderer(sshSession),
		Width:    pty.Window.Width,
		Height:   pty.Window.Height,
	})
	sshSession.Context().SetValue(sessionKey{}, model)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}

// sessionKey stores a connection's SessionModel in its SSH context.
type sessionKey struct{}

// cleanupMiddleware runs after the Bubble Tea program of a connection has
// ended and closes the engine it left running, so its run is recorded.
func (s *SSHServer) cleanupMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		if m, ok := sshSession.Context().Value(sessionKey{}).(SessionModel); ok {
			m.Close()
		}
		next(sshSession)
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.store != nil {
		s.store.Close()
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// ResolveDemo resolves only built-in demo references.
func ResolveDemo(ref string) (script.Source, error) {
	if !strings.HasPrefix(ref, registry.Scheme) {
		return script.Source{}, &script.ResolutionError{Ref: ref, Err: errors.New("only built-in demos are served")}
	}
	return script.Resolve(ref)
}

// SessionConfig configures a menu session.
type SessionConfig struct {
	Store         *storage.Store
	Settings      config.Settings
	Keys          KeyMap
	Logger        *log.Logger
	Renderer      *lipgloss.Renderer
	ScreenshotDir string
	Width, Height int

	// Resolve defaults to ResolveDemo.
	Resolve func(string) (script.Source, error)
	// DemosOnly hides recent files in the menu.
	DemosOnly bool
}

// SessionModel manages the full session flow: menu -> script -> menu.
// This is the top-level model used for SSH sessions.
type SessionModel struct {
	cfg      SessionConfig
	menu     MenuModel
	history  *HistoryModel
	run      *Model
	active   *activeRun
	quitting bool
}

// activeRun is the engine a session is running. Every copy of the session
// model shares it, so the owner can close it after the program has ended.
type activeRun struct {
	eng    *engine.Engine
	finish func()
}

func (a *activeRun) stop() {
	if a.finish != nil {
		a.finish()
		a.finish = nil
	}
	if a.eng != nil {
		a.eng.Close()
		a.eng = nil
	}
}

// NewSessionModel creates a new session model.
func NewSessionModel(cfg SessionConfig) SessionModel {
	if cfg.Resolve == nil {
		cfg.Resolve = ResolveDemo
		cfg.DemosOnly = true
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return SessionModel{
		cfg:    cfg,
		menu:   NewMenuModel(MenuItems(cfg.Store, cfg.DemosOnly), cfg.Width, cfg.Height, cfg.Renderer),
		active: &activeRun{},
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.cfg.Width = wsm.Width
		m.cfg.Height = wsm.Height
	}

	switch {
	case m.run != nil:
		return m.updateRun(msg)
	case m.history != nil:
		return m.updateHistory(msg)
	default:
		return m.updateMenu(msg)
	}
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsHistory() {
		h := NewHistoryModel(m.cfg.Store, m.cfg.Width, m.cfg.Height, m.cfg.Renderer)
		m.history = &h
		m.menu = m.newMenu()
		return m, h.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		run, err := m.start(selected.Ref)
		if err != nil {
			m.cfg.Logger.Error("cannot start engine", "err", err)
			m.menu = m.newMenu()
			return m, nil
		}
		m.run = &run
		return m, run.Init()
	}

	return m, cmd
}

// updateHistory handles updates when the history screen is open.
func (m SessionModel) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.history.Update(msg)
	if h, ok := newModel.(HistoryModel); ok {
		m.history = &h
	}

	if m.history.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.history.IsGoingBack() {
		m.history = nil
		return m, m.menu.Init()
	}
	return m, cmd
}

// updateRun handles updates while a script runs.
func (m SessionModel) updateRun(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.run.Update(msg)
	if run, ok := newModel.(Model); ok {
		m.run = &run
	}

	if m.run.BackToMenu() {
		m.stop()
		m.run = nil
		m.menu = m.newMenu()
		return m, m.menu.Init()
	}

	if m.run.IsQuitting() {
		m.stop()
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

func (m SessionModel) newMenu() MenuModel {
	return NewMenuModel(MenuItems(m.cfg.Store, m.cfg.DemosOnly), m.cfg.Width, m.cfg.Height, m.cfg.Renderer)
}

// start builds an engine for ref and a run model around it.
func (m *SessionModel) start(ref string) (Model, error) {
	rt, err := m.cfg.Settings.Runtime()
	if err != nil {
		return Model{}, err
	}
	latch := NewLatch(m.cfg.Settings.KeyHold())
	eng, err := engine.New(engine.Options{
		Config:  rt,
		Input:   latch,
		Logger:  m.cfg.Logger,
		Resolve: m.cfg.Resolve,
	})
	if err != nil {
		return Model{}, err
	}

	m.active.eng = eng
	if m.cfg.Store != nil {
		m.active.finish = engine.Record(eng, m.cfg.Store)
	}
	if err := eng.Load(ref); err != nil {
		m.cfg.Logger.Warn("load failed", "script", ref, "err", err)
	}

	return NewModel(eng, Options{
		Keys:          m.cfg.Keys,
		Latch:         latch,
		Logger:        m.cfg.Logger,
		Renderer:      m.cfg.Renderer,
		ScreenshotDir: m.cfg.ScreenshotDir,
		AllowBack:     true,
		Width:         m.cfg.Width,
		Height:        m.cfg.Height,
	}), nil
}

// stop closes the open run and the guest context.
func (m SessionModel) stop() {
	m.active.stop()
}

// Close ends whatever the session is running. Call it once the program
// has exited.
func (m SessionModel) Close() {
	m.stop()
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch {
	case m.run != nil:
		return m.run.View()
	case m.history != nil:
		return m.history.View()
	default:
		return m.menu.View()
	}
}

// RunSession runs a menu session on the local terminal.
func RunSession(cfg SessionConfig) error {
	m := NewSessionModel(cfg)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	m.Close()
	return err
}
