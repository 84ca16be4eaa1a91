package multiplayer

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrLobbyNotFound is returned for an unknown or expired join code.
	ErrLobbyNotFound = errors.New("multiplayer: lobby not found")
	ErrLobbyFull     = errors.New("multiplayer: lobby is full")
	ErrInLobby       = errors.New("multiplayer: already in a lobby")
	ErrOwnLobby      = errors.New("multiplayer: cannot join your own lobby")
	ErrLobbyExpired  = errors.New("multiplayer: lobby expired")
)

// MinSeats and MaxSeats bound the size of a lobby.
const (
	MinSeats = 2
	MaxSeats = 4
)

// Lobby represents a waiting room for a match.
type Lobby struct {
	Code      string
	Ruleset   string
	Seats     int
	Members   []SessionHandle // host first
	CreatedAt time.Time
}

// Host returns the session that created the lobby.
func (l *Lobby) Host() SessionHandle { return l.Members[0] }

// Names returns the seated player names in seat order.
func (l *Lobby) Names() []string {
	names := make([]string, len(l.Members))
	for i, m := range l.Members {
		names[i] = m.Name()
	}
	return names
}

func (l *Lobby) seat(id SessionID) int {
	for i, m := range l.Members {
		if m.ID() == id {
			return i
		}
	}
	return -1
}

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	LobbyTimeout  time.Duration // How long before a lobby that never filled expires
	TickRate      int           // Game tick rate (Hz)
	CleanupPeriod time.Duration // How often to clean up expired lobbies
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		LobbyTimeout:  2 * time.Minute,
		TickRate:      60,
		CleanupPeriod: 30 * time.Second,
	}
}

// MatchResultSaver is an interface for saving match results.
// This allows the coordinator to save results without depending on the storage package.
type MatchResultSaver interface {
	SaveMatchResult(result MatchResultData) error
}

// MatchResultData contains match result data for persistence.
type MatchResultData struct {
	MatchID      string
	Ruleset      string
	Seed         int64
	Players      []string
	Scores       []int
	Winner       string
	EndReason    string
	DurationSecs int
}

// activeMatch is a started match the coordinator still tracks.
type activeMatch struct {
	info      MatchInfo
	members   []SessionHandle
	endpoints []*Endpoint
	started   time.Time
}

// Coordinator manages lobbies and the matches they turn into. Matches run
// on the clients; the coordinator only seats them on a shared hub channel
// and records how they ended.
type Coordinator struct {
	config      CoordinatorConfig
	sessions    *SessionRegistry
	hub         *Hub
	resultSaver MatchResultSaver // Optional, can be nil
	logger      *log.Logger

	mu      sync.RWMutex
	lobbies map[string]*Lobby
	matches map[MatchID]*activeMatch

	// Track which session is in which lobby/match
	sessionLobby map[SessionID]string
	sessionMatch map[SessionID]MatchID

	msgChan chan CoordinatorMessage
	done    chan struct{}
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig, sessions *SessionRegistry, hub *Hub) *Coordinator {
	return &Coordinator{
		config:       cfg,
		sessions:     sessions,
		hub:          hub,
		logger:       log.Default(),
		lobbies:      make(map[string]*Lobby),
		matches:      make(map[MatchID]*activeMatch),
		sessionLobby: make(map[SessionID]string),
		sessionMatch: make(map[SessionID]MatchID),
		msgChan:      make(chan CoordinatorMessage, 256),
		done:         make(chan struct{}),
	}
}

// SetResultSaver sets the optional match result saver.
func (c *Coordinator) SetResultSaver(saver MatchResultSaver) {
	c.resultSaver = saver
}

// SetLogger replaces the default logger.
func (c *Coordinator) SetLogger(l *log.Logger) {
	c.logger = l
}

// Start begins the coordinator's background processing.
func (c *Coordinator) Start() {
	go c.processMessages()
	go c.cleanupLoop()
}

// Stop shuts down the coordinator.
func (c *Coordinator) Stop() {
	close(c.done)
}

// Send sends a message to the coordinator for async processing.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) processMessages() {
	for {
		select {
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg CoordinatorMessage) {
	switch m := msg.(type) {
	case CreateLobbyMsg:
		c.handleCreateLobby(m)
	case JoinLobbyMsg:
		c.handleJoinLobby(m)
	case CancelLobbyMsg:
		c.handleCancelLobby(m)
	case LeaveLobbyMsg:
		c.handleLeaveLobby(m)
	case LeaveMatchMsg:
		c.handleLeaveMatch(m)
	case MatchFinishedMsg:
		c.handleMatchFinished(m)
	case SessionDisconnectedMsg:
		c.handleSessionDisconnected(m)
	}
}

func (c *Coordinator) handleCreateLobby(msg CreateLobbyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	if _, inLobby := c.sessionLobby[msg.SessionID]; inLobby {
		c.mu.Unlock()
		session.Send(LobbyErrorEvent{Err: ErrInLobby})
		return
	}

	seats := min(max(msg.Seats, MinSeats), MaxSeats)
	code := c.generateUniqueCode()
	c.lobbies[code] = &Lobby{
		Code:      code,
		Ruleset:   msg.Ruleset,
		Seats:     seats,
		Members:   []SessionHandle{session},
		CreatedAt: time.Now(),
	}
	c.sessionLobby[msg.SessionID] = code
	c.mu.Unlock()

	c.logger.Info("lobby created", "code", code, "host", session.Name(), "seats", seats)
	session.Send(LobbyCreatedEvent{Code: code, Ruleset: msg.Ruleset, Seats: seats})
}

func (c *Coordinator) handleJoinLobby(msg JoinLobbyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, inLobby := c.sessionLobby[msg.SessionID]; inLobby {
		session.Send(LobbyErrorEvent{Err: ErrInLobby})
		return
	}

	lobby, err := c.lookup(msg.Code)
	if err != nil {
		session.Send(LobbyErrorEvent{Err: err})
		return
	}
	if lobby.Host().ID() == msg.SessionID {
		session.Send(LobbyErrorEvent{Err: ErrOwnLobby})
		return
	}
	if len(lobby.Members) >= lobby.Seats {
		session.Send(LobbyErrorEvent{Err: ErrLobbyFull})
		return
	}

	lobby.Members = append(lobby.Members, session)
	c.sessionLobby[msg.SessionID] = lobby.Code

	joined := LobbyJoinedEvent{Code: lobby.Code, Names: lobby.Names(), Seats: lobby.Seats}
	for _, m := range lobby.Members {
		m.Send(joined)
	}

	if len(lobby.Members) == lobby.Seats {
		c.startMatch(lobby)
	}
}

// startMatch seats the lobby members on a fresh hub channel.
// Must be called with the lock held.
func (c *Coordinator) startMatch(lobby *Lobby) {
	info := MatchInfo{
		ID:      NewMatchID(),
		Mode:    MatchModeOnline,
		Seed:    NewSeed(),
		Ruleset: lobby.Ruleset,
		Names:   lobby.Names(),
	}
	m := &activeMatch{
		info:    info,
		members: lobby.Members,
		started: time.Now(),
	}
	for seat := range lobby.Members {
		m.endpoints = append(m.endpoints, c.hub.Join(string(info.ID), seat))
	}

	c.matches[info.ID] = m
	for _, s := range lobby.Members {
		delete(c.sessionLobby, s.ID())
		c.sessionMatch[s.ID()] = info.ID
	}
	delete(c.lobbies, lobby.Code)

	c.logger.Info("match started", "id", info.ID, "code", lobby.Code, "players", info.Names)
	for seat, s := range lobby.Members {
		s.Send(MatchStartedEvent{
			Info:      info,
			Code:      lobby.Code,
			Seat:      seat,
			Transport: m.endpoints[seat],
		})
	}
}

func (c *Coordinator) handleMatchFinished(msg MatchFinishedMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, exists := c.matches[msg.MatchID]
	if !exists {
		return
	}
	c.endMatch(m, MatchEndedEvent{
		MatchID: msg.MatchID,
		Reason:  msg.Reason,
		Winner:  msg.Winner,
		Scores:  msg.Scores,
	}, msg.Frames)
}

// endMatch records the result, notifies every member and forgets the
// match. Must be called with the lock held.
func (c *Coordinator) endMatch(m *activeMatch, evt MatchEndedEvent, frames int) {
	if c.resultSaver != nil {
		winner := ""
		if evt.Winner >= 0 && evt.Winner < len(m.info.Names) {
			winner = m.info.Names[evt.Winner]
		}
		tickRate := max(1, c.config.TickRate)
		data := MatchResultData{
			MatchID:      string(m.info.ID),
			Ruleset:      m.info.Ruleset,
			Seed:         m.info.Seed,
			Players:      m.info.Names,
			Scores:       evt.Scores,
			Winner:       winner,
			EndReason:    evt.Reason.String(),
			DurationSecs: frames / tickRate,
		}
		go func() {
			if err := c.resultSaver.SaveMatchResult(data); err != nil {
				c.logger.Error("cannot save match result", "id", data.MatchID, "err", err)
			}
		}()
	}

	for _, s := range m.members {
		delete(c.sessionMatch, s.ID())
		s.Send(evt)
	}
	for _, e := range m.endpoints {
		_ = e.Close() //nolint:errcheck // hub endpoints never fail to close
	}
	delete(c.matches, m.info.ID)
	c.logger.Info("match ended", "id", m.info.ID, "reason", evt.Reason)
}

func (c *Coordinator) handleCancelLobby(msg CancelLobbyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, err := c.lookup(msg.Code)
	if err != nil || lobby.Host().ID() != msg.SessionID {
		return
	}
	c.closeLobby(lobby, MatchEndReasonCancelled)
}

// closeLobby drops a lobby and tells the remaining members why.
// Must be called with the lock held.
func (c *Coordinator) closeLobby(lobby *Lobby, reason MatchEndReason) {
	for i, m := range lobby.Members {
		if i > 0 {
			m.Send(MatchEndedEvent{Reason: reason, Winner: -1})
		}
		delete(c.sessionLobby, m.ID())
	}
	delete(c.lobbies, lobby.Code)
}

func (c *Coordinator) handleLeaveLobby(msg LeaveLobbyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, err := c.lookup(msg.Code)
	if err != nil {
		return
	}
	c.leaveLobby(lobby, msg.SessionID)
}

// leaveLobby removes a member. The host leaving closes the lobby.
// Must be called with the lock held.
func (c *Coordinator) leaveLobby(lobby *Lobby, id SessionID) {
	seat := lobby.seat(id)
	switch {
	case seat < 0:
		return
	case seat == 0:
		c.closeLobby(lobby, MatchEndReasonHostLeft)
	default:
		lobby.Members = append(lobby.Members[:seat], lobby.Members[seat+1:]...)
		delete(c.sessionLobby, id)
		left := LobbyPlayerLeftEvent{Code: lobby.Code, Names: lobby.Names()}
		for _, m := range lobby.Members {
			m.Send(left)
		}
	}
}

func (c *Coordinator) handleLeaveMatch(msg LeaveMatchMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, exists := c.matches[msg.MatchID]; exists {
		c.dropFromMatch(m, msg.SessionID)
	}
}

// dropFromMatch ends a match because one member is gone.
// Must be called with the lock held.
func (c *Coordinator) dropFromMatch(m *activeMatch, id SessionID) {
	c.logger.Warn("player left match", "id", m.info.ID, "session", id)
	c.endMatch(m, MatchEndedEvent{
		MatchID: m.info.ID,
		Reason:  MatchEndReasonDisconnect,
		Winner:  -1,
	}, int(time.Since(m.started).Seconds())*max(1, c.config.TickRate))
}

func (c *Coordinator) handleSessionDisconnected(msg SessionDisconnectedMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if code, inLobby := c.sessionLobby[msg.SessionID]; inLobby {
		if lobby, exists := c.lobbies[code]; exists {
			c.leaveLobby(lobby, msg.SessionID)
		}
		delete(c.sessionLobby, msg.SessionID)
	}

	if matchID, inMatch := c.sessionMatch[msg.SessionID]; inMatch {
		if m, exists := c.matches[matchID]; exists {
			c.dropFromMatch(m, msg.SessionID)
		}
	}
}

func (c *Coordinator) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpiredLobbies()
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) cleanupExpiredLobbies() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, lobby := range c.lobbies {
		if now.Sub(lobby.CreatedAt) > c.config.LobbyTimeout {
			lobby.Host().Send(LobbyErrorEvent{Err: ErrLobbyExpired})
			c.closeLobby(lobby, MatchEndReasonCancelled)
		}
	}
}

// lookup finds a lobby by join code. Must be called with the lock held.
func (c *Coordinator) lookup(code string) (*Lobby, error) {
	lobby, ok := c.lobbies[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLobbyNotFound, code)
	}
	return lobby, nil
}

func (c *Coordinator) generateUniqueCode() string {
	for {
		code := generateJoinCode()
		if _, exists := c.lobbies[code]; !exists {
			return code
		}
	}
}

// generateJoinCode creates a 6-character uppercase alphanumeric code.
func generateJoinCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	return base32.StdEncoding.EncodeToString(b)[:6]
}

// NewSeed draws a shared match seed.
func NewSeed() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return time.Now().UnixNano()
	}
	return n.Int64()
}

// GetLobby returns a lobby by code.
func (c *Coordinator) GetLobby(code string) (*Lobby, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup(code)
}

// LobbyCount returns the number of open lobbies.
func (c *Coordinator) LobbyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lobbies)
}

// MatchCount returns the number of running matches.
func (c *Coordinator) MatchCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matches)
}
