package multiplayer

import (
	"slices"
	"sync"
)

// SessionHandle is how the coordinator reaches one connected player. It
// knows nothing about SSH or Bubble Tea.
type SessionHandle interface {
	ID() SessionID
	Name() string
	// Send queues evt for the player. It never blocks the coordinator.
	Send(evt SessionEvent)
	// Done is closed when the player disconnects.
	Done() <-chan struct{}
}

// ChannelSession queues coordinator events on a buffered channel that the
// player's front-end drains. When the queue is full the oldest event is
// discarded.
type ChannelSession struct {
	id     SessionID
	name   string
	events chan SessionEvent
	done   chan struct{}
	closed sync.Once
}

const defaultSessionBuffer = 64

func NewChannelSession(id SessionID, name string, buffer int) *ChannelSession {
	if buffer < 1 {
		buffer = defaultSessionBuffer
	}
	return &ChannelSession{
		id:     id,
		name:   name,
		events: make(chan SessionEvent, buffer),
		done:   make(chan struct{}),
	}
}

func (s *ChannelSession) ID() SessionID { return s.id }

func (s *ChannelSession) Name() string { return s.name }

func (s *ChannelSession) Send(evt SessionEvent) {
	for range 2 {
		select {
		case <-s.done:
			return
		case s.events <- evt:
			return
		default:
		}
		// Full: make room and retry once.
		select {
		case <-s.events:
		default:
		}
	}
}

// Events is read by exactly one consumer, the session's screen loop.
func (s *ChannelSession) Events() <-chan SessionEvent { return s.events }

func (s *ChannelSession) Done() <-chan struct{} { return s.done }

// Close ends the session. Later calls do nothing.
func (s *ChannelSession) Close() {
	s.closed.Do(func() { close(s.done) })
}

// SessionRegistry is the set of connected players, shared between the SSH
// handlers and the coordinator.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[SessionID]SessionHandle
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[SessionID]SessionHandle)}
}

func (r *SessionRegistry) Register(session SessionHandle) {
	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()
}

func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Names lists the connected players in sorted order.
func (r *SessionRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		names = append(names, s.Name())
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}
