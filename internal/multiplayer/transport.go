package multiplayer

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned when sending on a closed transport.
	ErrClosed = errors.New("multiplayer: transport closed")
	// ErrBufferFull is returned when a peer stopped draining its inbox.
	ErrBufferFull = errors.New("multiplayer: peer buffer full")
)

// Envelope is a record delivered over a transport.
type Envelope struct {
	Channel string
	From    int // sender seat
	Payload string
}

// Transport delivers records between the clients of a match. Delivery is
// in order per sender; a record is never echoed back to its sender.
type Transport interface {
	// Send broadcasts payload to the other members of channel.
	Send(channel, payload string) error

	// Receive returns the inbound records.
	Receive() <-chan Envelope

	// Close leaves every channel. Receive's channel is closed.
	Close() error
}

// InboxSize is the inbound buffer of an endpoint.
const InboxSize = 4096

// Hub is an in-process Transport provider. Endpoints joined to the same
// channel see each other's records.
type Hub struct {
	mu       sync.Mutex
	channels map[string][]*Endpoint
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{channels: make(map[string][]*Endpoint)}
}

// Join adds an endpoint for seat to channel.
func (h *Hub) Join(channel string, seat int) *Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := &Endpoint{
		hub:     h,
		channel: channel,
		seat:    seat,
		inbox:   make(chan Envelope, InboxSize),
	}
	h.channels[channel] = append(h.channels[channel], e)
	return e
}

// Members returns the number of endpoints in channel.
func (h *Hub) Members(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

func (h *Hub) leave(e *Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	close(e.inbox)

	members := h.channels[e.channel]
	for i, m := range members {
		if m == e {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(h.channels, e.channel)
	} else {
		h.channels[e.channel] = members
	}
}

// Endpoint is one seat's view of a hub channel.
type Endpoint struct {
	hub     *Hub
	channel string
	seat    int
	inbox   chan Envelope
	closed  bool // guarded by hub.mu
}

// Seat returns the seat this endpoint sends as.
func (e *Endpoint) Seat() int { return e.seat }

// Channel returns the joined channel.
func (e *Endpoint) Channel() string { return e.channel }

// Send delivers payload to every other member of channel.
func (e *Endpoint) Send(channel, payload string) error {
	e.hub.mu.Lock()
	defer e.hub.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	env := Envelope{Channel: channel, From: e.seat, Payload: payload}
	for _, m := range e.hub.channels[channel] {
		if m == e {
			continue
		}
		select {
		case m.inbox <- env:
		default:
			return ErrBufferFull
		}
	}
	return nil
}

// Receive returns the inbound records.
func (e *Endpoint) Receive() <-chan Envelope { return e.inbox }

// Close leaves the hub.
func (e *Endpoint) Close() error {
	e.hub.leave(e)
	return nil
}
