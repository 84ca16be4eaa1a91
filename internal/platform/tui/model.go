package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/player"
	"github.com/vovakirdan/tui-puyo/internal/registry"
	"github.com/vovakirdan/tui-puyo/internal/replay"
	"github.com/vovakirdan/tui-puyo/internal/storage"
	"github.com/vovakirdan/tui-puyo/internal/versus"
)

// ReplayExt is the file extension of exported replays.
const ReplayExt = ".rpvs"

// MatchSetup describes the match a Model plays.
type MatchSetup struct {
	Info  multiplayer.MatchInfo
	Seats []versus.Seat
	Rules registry.Ruleset

	// Local is the seat read from the keyboard, -1 when nobody is.
	Local int

	// CPU difficulty for KindCPU seats. Controllers are rebuilt on restart.
	CPU       config.DifficultyPreset
	CPUConfig config.CPUConfig

	Transport multiplayer.Transport
	TickRate  int

	// ReplayDir receives a replay file per finished match when set.
	ReplayDir string

	Logger *log.Logger

	// OnFinish is called once per match when it ends.
	OnFinish func(multiplayer.MatchInfo, versus.Result)
}

// VsCPUSetup seats name against cpus CPU players.
func VsCPUSetup(name string, rules registry.Ruleset, preset config.DifficultyPreset, cpus int, seed int64) MatchSetup {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cpus = core.Clamp(cpus, 1, versus.MaxSeats-1)
	seats := []versus.Seat{{Name: name, Kind: player.KindHuman}}
	names := []string{name}
	for i := range cpus {
		n := fmt.Sprintf("CPU %d", i+1)
		if cpus == 1 {
			n = "CPU"
		}
		seats = append(seats, versus.Seat{Name: n, Kind: player.KindCPU})
		names = append(names, n)
	}
	return MatchSetup{
		Info: multiplayer.MatchInfo{
			ID:      multiplayer.NewMatchID(),
			Mode:    multiplayer.MatchModeVsCPU,
			Seed:    seed,
			Ruleset: rules.ID(),
			Names:   names,
		},
		Seats:     seats,
		Rules:     rules,
		Local:     0,
		CPU:       preset,
		CPUConfig: config.DefaultCPUConfig(),
		TickRate:  60,
	}
}

// OnlineSetup seats the players of an online match as seen from seat local.
func OnlineSetup(info multiplayer.MatchInfo, local int, rules registry.Ruleset, tr multiplayer.Transport) MatchSetup {
	return MatchSetup{
		Info:      info,
		Seats:     versus.OnlineSeats(info, local),
		Rules:     rules,
		Local:     local,
		Transport: tr,
		TickRate:  60,
	}
}

func (s MatchSetup) build() (*versus.Match, error) {
	seats := make([]versus.Seat, len(s.Seats))
	copy(seats, s.Seats)
	for i := range seats {
		if seats[i].Kind == player.KindCPU && seats[i].CPU == nil && s.CPU != "" {
			seats[i].CPU = versus.NewCPU(s.CPUConfig, s.CPU, s.Info.Seed+int64(i))
		}
	}
	m, err := versus.New(versus.Config{
		Seed:      s.Info.Seed,
		Rules:     s.Rules,
		Seats:     seats,
		Transport: s.Transport,
		Channel:   string(s.Info.ID),
		Logger:    s.Logger,
	})
	if err != nil {
		return nil, err
	}
	m.Start()
	return m, nil
}

// Model is the Bubble Tea model of a live match.
type Model struct {
	setup     MatchSetup
	match     *versus.Match
	views     []versus.View
	maxChain  []int
	screen    *core.Screen
	store     *storage.Store
	logger    *log.Logger
	keyMapper *KeyMapper
	input     core.MultiInputFrame

	paused     bool
	result     *versus.Result
	status     string
	quitting   bool
	backToMenu bool
	standalone bool // no menu to return to
}

// NewModel creates the model and its first match.
func NewModel(setup MatchSetup, store *storage.Store, width, height int) (Model, error) {
	if setup.TickRate <= 0 {
		setup.TickRate = 60
	}
	if setup.Logger == nil {
		setup.Logger = log.Default()
	}
	m := Model{
		setup:     setup,
		screen:    core.NewScreen(width, height),
		store:     store,
		logger:    setup.Logger,
		keyMapper: NewKeyMapper(),
		input:     core.NewMultiInputFrame(),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reset() error {
	match, err := m.setup.build()
	if err != nil {
		return fmt.Errorf("tui: cannot start match: %w", err)
	}
	m.match = match
	m.views = match.View()
	m.maxChain = make([]int, len(m.views))
	m.result = nil
	m.paused = false
	m.status = ""
	return nil
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.setup.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil

	case multiplayer.MatchEndedEvent:
		// The coordinator ended the match before this client saw a winner.
		if m.result == nil {
			m.finish(msg.Reason, nil)
		}
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m Model) offline() bool {
	return m.setup.Info.Mode != multiplayer.MatchModeOnline
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "ctrl+s":
		m.saveScreenshot()
		return m, nil
	}

	action, _ := m.keyMapper.MapKey(msg)
	switch action {
	case core.ActionQuit, core.ActionBack:
		if m.result != nil || m.paused {
			return m.leave()
		}
		if !m.offline() {
			// Leaving an online match forfeits it.
			m.finish(multiplayer.MatchEndReasonCancelled, nil)
			return m.leave()
		}
		m.paused = true
		return m, nil
	case core.ActionPause:
		if m.offline() && m.result == nil {
			m.paused = !m.paused
		}
		return m, nil
	case core.ActionRestart:
		if m.result != nil && m.offline() {
			m.setup.Info.ID = multiplayer.NewMatchID()
			m.setup.Info.Seed = time.Now().UnixNano()
			if err := m.reset(); err != nil {
				m.status = err.Error()
				return m, nil
			}
			return m, tickCmd(m.setup.TickRate)
		}
		return m, nil
	}

	if m.setup.Local >= 0 && action != core.ActionNone {
		m.keyMapper.MapKeyToMultiFrame(msg, &m.input)
	}
	return m, nil
}

func (m Model) leave() (tea.Model, tea.Cmd) {
	m.backToMenu = true
	if m.standalone {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.result != nil {
		return m, nil
	}
	if !m.paused {
		if err := m.match.Tick(m.input); err != nil {
			m.views = m.match.View()
			m.finish(multiplayer.MatchEndReasonDesync, err)
			return m, nil
		}
		m.views = m.match.View()
		for i, v := range m.views {
			m.maxChain[i] = max(m.maxChain[i], v.LastChain)
		}
		if m.match.Over() {
			m.finish(multiplayer.MatchEndReasonCompleted, nil)
			return m, nil
		}
	}
	m.input.Clear()
	return m, tickCmd(m.setup.TickRate)
}

// finish records the outcome once.
func (m *Model) finish(reason multiplayer.MatchEndReason, err error) {
	if m.result != nil {
		return
	}
	res := versus.Result{
		Reason: reason,
		Winner: m.match.Winner(),
		Frames: m.match.Frame(),
		Scores: m.match.Scores(),
		Err:    err,
	}
	m.result = &res
	if err != nil {
		m.logger.Error("match failed", "match", m.setup.Info.ID, "err", err)
	}
	m.save(res)
	if m.setup.OnFinish != nil {
		m.setup.OnFinish(m.setup.Info, res)
	}
}

// save persists the local score, and the match and its replay.
func (m *Model) save(res versus.Result) {
	info := m.setup.Info
	rec := m.match.Recording(time.Now())

	if m.setup.ReplayDir != "" {
		path := filepath.Join(m.setup.ReplayDir, string(info.ID)+ReplayExt)
		if err := replay.SaveFile(path, rec); err != nil {
			m.logger.Warn("cannot export replay", "path", path, "err", err)
		}
	}
	if m.store == nil {
		return
	}

	if l := m.setup.Local; l >= 0 && l < len(res.Scores) && res.Scores[l] > 0 {
		if _, err := m.store.SaveScore(info.Names[l], info.Ruleset, res.Scores[l], m.maxChain[l]); err != nil {
			m.logger.Warn("cannot save score", "err", err)
		}
	}

	// Online results are stored by the coordinator; seat 0 keeps the replay.
	if !m.offline() && m.setup.Local != 0 {
		return
	}
	replayID, err := m.store.SaveReplay(string(info.ID), rec)
	if err != nil {
		m.logger.Warn("cannot save replay", "err", err)
	}
	if !m.offline() {
		return
	}

	players := make([]storage.MatchPlayer, len(info.Names))
	for i, name := range info.Names {
		players[i] = storage.MatchPlayer{Seat: i, Name: name, Score: res.Scores[i]}
	}
	winner := ""
	if res.Winner >= 0 && res.Winner < len(info.Names) {
		winner = info.Names[res.Winner]
	}
	_, err = m.store.SaveMatch(storage.MatchRecord{
		MatchID:   string(info.ID),
		Ruleset:   info.Ruleset,
		Seed:      info.Seed,
		Players:   players,
		Winner:    winner,
		EndReason: res.Reason.String(),
		Duration:  res.Frames / m.setup.TickRate,
		ReplayID:  replayID,
	})
	if err != nil {
		m.logger.Warn("cannot save match", "err", err)
	}
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.render()

	dir := filepath.Join(config.UserDir(), "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("puyo_%s.txt", timestamp))

	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

func (m *Model) render() {
	m.screen.Clear()
	w, h := BoardsSize(m.views)
	if w > m.screen.Width() || h+2 > m.screen.Height() {
		renderTooSmall(m.screen, w, h+2)
		return
	}

	x := (m.screen.Width() - w) / 2
	title := fmt.Sprintf("%s  %s  frame %d", m.setup.Info.Mode, m.setup.Rules.Title(), m.match.Frame())
	m.screen.DrawTextColor(x, 0, title, core.ColorGray)
	DrawBoards(m.screen, m.views, x, 1)

	footer := h + 1
	switch {
	case m.status != "":
		m.screen.DrawTextColor(x, footer, m.status, core.ColorRed)
	case m.result != nil:
		m.screen.DrawTextColor(x, footer, m.resultLine(), core.ColorBrightYellow)
	case m.paused:
		m.screen.DrawTextColor(x, footer, "PAUSED  p: resume  b: menu", core.ColorBrightWhite)
	default:
		m.screen.DrawTextColor(x, footer, m.keyMapper.MatchHelp(), core.ColorGray)
	}
}

func (m Model) resultLine() string {
	res := m.result
	var line string
	switch {
	case res.Err != nil:
		line = fmt.Sprintf("%s: %v", res.Reason, res.Err)
	case res.Reason != multiplayer.MatchEndReasonCompleted:
		line = res.Reason.String()
	case res.Winner < 0:
		line = "Draw"
	case res.Winner == m.setup.Local:
		line = "You win!"
	default:
		line = fmt.Sprintf("%s wins", m.setup.Info.Names[res.Winner])
	}
	if m.offline() {
		return line + "  r: rematch  b: menu"
	}
	return line + "  b: menu"
}

func renderTooSmall(dst *core.Screen, w, h int) {
	y := dst.Height() / 2
	dst.DrawTextCentered(y, "Window too small")
	dst.DrawTextCentered(y+1, fmt.Sprintf("Need %dx%d", w, h))
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	m.render()
	return RenderScreen(m.screen)
}

// Result returns the outcome once the match ended, or nil.
func (m Model) Result() *versus.Result {
	return m.result
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run starts a standalone Bubble Tea program for setup.
func Run(setup MatchSetup, store *storage.Store, width, height int) error {
	model, err := NewModel(setup, store, width, height)
	if err != nil {
		return err
	}
	model.standalone = true

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
