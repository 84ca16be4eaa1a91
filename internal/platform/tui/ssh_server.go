package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/registry"
	"github.com/vovakirdan/tui-puyo/internal/storage"
	"github.com/vovakirdan/tui-puyo/internal/versus"
)

// sessionEventBuffer is the event queue length of an SSH session.
const sessionEventBuffer = 64

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":2222").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.puyo/host_key.
	HostKeyPath string

	// DBPath is the path to the database. Empty runs without storage.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	TickRate int

	// Ruleset and CPU preselect the setup screens.
	Ruleset string
	CPU     config.DifficultyPreset
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":2222",
		DBPath:      filepath.Join(config.UserDir(), "puyo.db"),
		IdleTimeout: 30 * time.Minute,
		TickRate:    60,
		Ruleset:     "tsu",
		CPU:         config.DifficultyNormal,
	}
}

// SSHServer hosts the game over SSH. Every connection gets its own
// Bubble Tea program; online tables are seated by a shared coordinator.
type SSHServer struct {
	config      SSHServerConfig
	server      *ssh.Server
	store       *storage.Store
	logger      *log.Logger
	sessions    *multiplayer.SessionRegistry
	coordinator *multiplayer.Coordinator
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "puyo-ssh",
	})
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}

	var store *storage.Store
	if cfg.DBPath != "" {
		var err error
		store, err = storage.Open(cfg.DBPath)
		if err != nil {
			logger.Warn("could not open database", "error", err)
			// Continue without storage
			store = nil
		}
	}

	sessions := multiplayer.NewSessionRegistry()
	coordCfg := multiplayer.DefaultCoordinatorConfig()
	coordCfg.TickRate = cfg.TickRate
	coordinator := multiplayer.NewCoordinator(coordCfg, sessions, multiplayer.NewHub())
	coordinator.SetLogger(logger.WithPrefix("coordinator"))
	if store != nil {
		coordinator.SetResultSaver(store)
	}

	srv := &SSHServer{
		config:      cfg,
		store:       store,
		logger:      logger,
		sessions:    sessions,
		coordinator: coordinator,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		dir := config.UserDir()
		if dir == "" {
			return nil, errors.New("cannot resolve home directory for the host key")
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

	session := multiplayer.NewChannelSession(multiplayer.NewSessionID(), sshSession.User(), sessionEventBuffer)
	s.sessions.Register(session)
	s.logger.Info("player connected", "user", session.Name(), "online", s.sessions.Count())
	go func() {
		<-sshSession.Context().Done()
		s.coordinator.Send(multiplayer.SessionDisconnectedMsg{SessionID: session.ID()})
		s.sessions.Unregister(session.ID())
		session.Close()
		s.logger.Info("player disconnected", "user", session.Name(), "still_online", s.sessions.Names())
	}()

	cfg := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: s.config.TickRate,
	}

	model := NewSessionModel(SessionOptions{
		Name:        sshSession.User(),
		Store:       s.store,
		Config:      cfg,
		Ruleset:     s.config.Ruleset,
		CPU:         s.config.CPU,
		Session:     session,
		Coordinator: s.coordinator,
		Logger:      s.logger.With("user", sshSession.User()),
	})

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
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
	s.coordinator.Start()

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

	s.coordinator.Stop()
	if s.store != nil {
		s.store.Close()
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// SessionOptions configures a SessionModel.
type SessionOptions struct {
	Name    string
	Store   *storage.Store
	Config  core.RuntimeConfig
	Ruleset string
	CPU     config.DifficultyPreset

	// ReplayDir receives exported replays when set.
	ReplayDir string

	// Session and Coordinator enable online play. Both nil runs offline.
	Session     *multiplayer.ChannelSession
	Coordinator *multiplayer.Coordinator

	Logger *log.Logger
}

type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenSetup
	screenLobby
	screenMatch
	screenHistory
	screenReplay
)

// SessionModel manages the full flow of one player: menu, setup, match,
// online lobby, history and replays. It owns the only reader of the
// session's event channel and forwards every event to the active screen.
type SessionModel struct {
	opts     SessionOptions
	config   core.RuntimeConfig
	screen   sessionScreen
	defaults MatchSelection

	menu    MenuModel
	setup   SetupModel
	lobby   OnlineLobbyModel
	match   Model
	history ScoreboardModel
	replay  ReplayModel

	err      string
	quitting bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(opts SessionOptions) SessionModel {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Config.ScreenW == 0 && opts.Config.ScreenH == 0 {
		opts.Config = core.DefaultConfig()
	}
	if opts.Config.TickRate <= 0 {
		opts.Config.TickRate = 60
	}
	if opts.CPU == "" {
		opts.CPU = config.DifficultyNormal
	}
	m := SessionModel{
		opts:   opts,
		config: opts.Config,
		defaults: MatchSelection{
			Ruleset:   opts.Ruleset,
			CPU:       opts.CPU,
			Opponents: 1,
			Seats:     multiplayer.MinSeats,
		},
	}
	m.menu = NewMenuModel(m.config, m.online())
	return m
}

func (m SessionModel) online() bool {
	return m.opts.Session != nil && m.opts.Coordinator != nil
}

func (m SessionModel) events() <-chan multiplayer.SessionEvent {
	if m.opts.Session == nil {
		return nil
	}
	return m.opts.Session.Events()
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return tea.Batch(m.menu.Init(), waitForEvent(m.events()))
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
	case multiplayer.SessionEvent:
		next, cmd := m.route(msg)
		return next, tea.Batch(cmd, waitForEvent(m.events()))
	}
	return m.route(msg)
}

// route hands msg to the active screen and follows its transitions.
func (m SessionModel) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenSetup:
		return m.updateSetup(msg)
	case screenLobby:
		return m.updateLobby(msg)
	case screenMatch:
		return m.updateMatch(msg)
	case screenHistory:
		return m.updateHistory(msg)
	case screenReplay:
		return m.updateReplay(msg)
	}
	return m.updateMenu(msg)
}

func (m SessionModel) toMenu() (tea.Model, tea.Cmd) {
	m.screen = screenMenu
	m.menu = NewMenuModel(m.config, m.online())
	return m, m.menu.Init()
}

func (m SessionModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(multiplayer.SessionEvent); ok {
		return m, nil
	}
	next, cmd := m.menu.Update(msg)
	m.menu = next.(MenuModel)

	if m.menu.IsQuitting() {
		return m.quit()
	}
	selected := m.menu.Selected()
	if selected == nil {
		return m, cmd
	}
	m.config = m.menu.Config()
	m.err = ""

	switch selected.Choice {
	case MenuChoiceVsCPU:
		m.setup = NewSetupModel(multiplayer.MatchModeVsCPU, m.defaults, m.config.ScreenW, m.config.ScreenH)
		m.screen = screenSetup
		return m, m.setup.Init()
	case MenuChoiceOnline:
		m.lobby = NewOnlineLobbyModel(m.opts.Session.ID(), m.opts.Coordinator, m.defaults, m.config.ScreenW, m.config.ScreenH)
		m.screen = screenLobby
		return m, m.lobby.Init()
	case MenuChoiceHistory:
		return m.openHistory()
	}
	return m, cmd
}

func (m SessionModel) updateSetup(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.setup.Update(msg)
	m.setup = next.(SetupModel)

	switch {
	case m.setup.IsQuitting():
		return m.quit()
	case m.setup.WantsBack():
		return m.toMenu()
	}
	sel := m.setup.Selected()
	if sel == nil {
		return m, cmd
	}
	m.defaults = *sel

	rules, err := registry.Create(sel.Ruleset)
	if err != nil {
		m.err = err.Error()
		return m.toMenu()
	}
	setup := VsCPUSetup(m.opts.Name, rules, sel.CPU, sel.Opponents, m.config.Seed)
	return m.startMatch(setup)
}

func (m SessionModel) startMatch(setup MatchSetup) (tea.Model, tea.Cmd) {
	setup.TickRate = m.config.TickRate
	setup.ReplayDir = m.opts.ReplayDir
	setup.Logger = m.opts.Logger
	model, err := NewModel(setup, m.opts.Store, m.config.ScreenW, m.config.ScreenH)
	if err != nil {
		m.opts.Logger.Error("cannot start match", "err", err)
		m.err = err.Error()
		return m.toMenu()
	}
	m.match = model
	m.screen = screenMatch
	return m, m.match.Init()
}

func (m SessionModel) updateLobby(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.lobby.Update(msg)
	m.lobby = next.(OnlineLobbyModel)

	switch {
	case m.lobby.IsQuitting():
		return m.quit()
	case m.lobby.BackToMenu():
		return m.toMenu()
	}
	started := m.lobby.Started()
	if started == nil {
		return m, cmd
	}

	rules, err := registry.Create(started.Info.Ruleset)
	if err != nil {
		// Nobody can play a ruleset this server does not know.
		m.opts.Coordinator.Send(multiplayer.LeaveMatchMsg{SessionID: m.opts.Session.ID(), MatchID: started.Info.ID})
		m.err = err.Error()
		return m.toMenu()
	}
	setup := OnlineSetup(started.Info, started.Seat, rules, started.Transport)
	sessionID := m.opts.Session.ID()
	coordinator := m.opts.Coordinator
	setup.OnFinish = func(info multiplayer.MatchInfo, res versus.Result) {
		coordinator.Send(multiplayer.MatchFinishedMsg{
			SessionID: sessionID,
			MatchID:   info.ID,
			Reason:    res.Reason,
			Winner:    res.Winner,
			Frames:    res.Frames,
			Scores:    res.Scores,
		})
	}
	return m.startMatch(setup)
}

func (m SessionModel) updateMatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.match.Update(msg)
	m.match = next.(Model)

	if m.match.IsQuitting() {
		m.leaveMatch()
		return m.quit()
	}
	if m.match.BackToMenu() {
		m.leaveMatch()
		return m.toMenu()
	}
	return m, cmd
}

// leaveMatch releases the seat of an online match.
func (m SessionModel) leaveMatch() {
	info := m.match.setup.Info
	if info.Mode != multiplayer.MatchModeOnline || !m.online() {
		return
	}
	m.opts.Coordinator.Send(multiplayer.LeaveMatchMsg{SessionID: m.opts.Session.ID(), MatchID: info.ID})
}

func (m SessionModel) openHistory() (tea.Model, tea.Cmd) {
	m.history = NewScoreboardModel(m.opts.Store, m.opts.Name, m.config.ScreenW, m.config.ScreenH)
	m.screen = screenHistory
	return m, m.history.Init()
}

func (m SessionModel) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(multiplayer.SessionEvent); ok {
		return m, nil
	}
	next, cmd := m.history.Update(msg)
	m.history = next.(ScoreboardModel)

	switch {
	case m.history.IsQuitting():
		return m.quit()
	case m.history.IsGoingBack():
		return m.toMenu()
	}
	id := m.history.Watch()
	if id == "" {
		return m, cmd
	}
	m.history.ClearWatch()

	f, err := m.opts.Store.LoadReplay(id)
	if err != nil {
		m.err = err.Error()
		return m, cmd
	}
	rules, err := registry.Create(f.Header.Ruleset)
	if err != nil {
		m.err = err.Error()
		return m, cmd
	}
	replay, err := NewReplayModel(f, rules, m.opts.Logger, m.config.TickRate, m.config.ScreenW, m.config.ScreenH)
	if err != nil {
		m.err = err.Error()
		return m, cmd
	}
	m.err = ""
	m.replay = replay
	m.screen = screenReplay
	return m, m.replay.Init()
}

func (m SessionModel) updateReplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(multiplayer.SessionEvent); ok {
		return m, nil
	}
	next, cmd := m.replay.Update(msg)
	m.replay = next.(ReplayModel)

	switch {
	case m.replay.IsQuitting():
		return m.quit()
	case m.replay.BackToMenu():
		// Ticks still in flight are dropped by the history screen.
		m.screen = screenHistory
		return m, nil
	}
	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	var view string
	switch m.screen {
	case screenSetup:
		view = m.setup.View()
	case screenLobby:
		view = m.lobby.View()
	case screenMatch:
		view = m.match.View()
	case screenHistory:
		view = m.history.View()
	case screenReplay:
		view = m.replay.View()
	default:
		view = m.menu.View()
	}
	if m.err != "" && (m.screen == screenMenu || m.screen == screenHistory) {
		view += "\n" + centerText("error: "+m.err, m.config.ScreenW)
	}
	return view
}

// RunSession runs the session flow in a local terminal.
func RunSession(opts SessionOptions) error {
	p := tea.NewProgram(NewSessionModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
