package netplay

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // terminal clients send no origin
	},
}

// RelayConfig holds configuration for the relay.
type RelayConfig struct {
	// Address is the host:port to listen on (e.g., ":23235").
	Address string
	// DefaultRuleset is used when the room creator names none.
	DefaultRuleset string
	// SendBuffer is the per-client outgoing queue.
	SendBuffer int
}

// DefaultRelayConfig returns a config with sensible defaults.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Address:        ":23235",
		DefaultRuleset: "tsu",
		SendBuffer:     multiplayer.InboxSize,
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	name string
	room *room
	seat int
}

type room struct {
	code    string
	seats   int
	ruleset string
	members []*client
	started bool
	match   multiplayer.MatchID
}

func (r *room) names() []string {
	names := make([]string, len(r.members))
	for i, c := range r.members {
		names[i] = c.name
	}
	return names
}

// Relay seats websocket clients into rooms and forwards their records.
type Relay struct {
	config RelayConfig
	logger *log.Logger
	server *http.Server

	mu    sync.Mutex
	rooms map[string]*room
}

// NewRelay creates a relay.
func NewRelay(cfg RelayConfig, logger *log.Logger) *Relay {
	if cfg.SendBuffer < 1 {
		cfg.SendBuffer = multiplayer.InboxSize
	}
	if cfg.DefaultRuleset == "" {
		cfg.DefaultRuleset = "tsu"
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "puyo-relay",
		})
	}
	r := &Relay{
		config: cfg,
		logger: logger,
		rooms:  make(map[string]*room),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.serveWS)
	r.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return r
}

// Handler returns the relay's HTTP handler.
func (r *Relay) Handler() http.Handler { return r.server.Handler }

// Rooms returns the number of open rooms.
func (r *Relay) Rooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// ListenAndServe starts the relay and blocks until shutdown.
func (r *Relay) ListenAndServe() error {
	r.logger.Info("starting relay", "address", r.config.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("server error", "error", err)
		}
	}()

	<-done
	r.logger.Info("shutting down...")
	return r.Shutdown()
}

// Shutdown gracefully stops the relay.
func (r *Relay) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.server.Shutdown(ctx)
}

func (r *Relay) serveWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("upgrade failed", "remote", req.RemoteAddr, "err", err)
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, r.config.SendBuffer),
		seat: -1,
	}
	go c.writePump()
	go r.readPump(c)
}

func (r *Relay) readPump(c *client) {
	defer func() {
		r.leave(c)
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		e, err := decode(raw)
		if err != nil {
			r.logger.Warn("bad message", "err", err)
			r.reply(c, Envelope{Type: TypeError, Error: err.Error()})
			continue
		}
		switch e.Type {
		case TypeJoin:
			r.join(c, e)
		case TypeRecord:
			r.forward(c, e.Payload)
		default:
			r.reply(c, Envelope{Type: TypeError, Error: "unknown type " + e.Type})
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

// reply queues e for c, dropping it when the client cannot keep up.
func (r *Relay) reply(c *client, e Envelope) {
	b, err := encode(e)
	if err != nil {
		r.logger.Error("cannot encode reply", "err", err)
		return
	}
	select {
	case c.send <- b:
	default:
		r.logger.Warn("client too slow, message dropped", "name", c.name, "type", e.Type)
	}
}

func (r *Relay) join(c *client, e Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.room != nil || e.Room == "" {
		r.reply(c, Envelope{Type: TypeError, Error: ErrBadRequest.Error()})
		return
	}
	rm, ok := r.rooms[e.Room]
	if !ok {
		seats := e.Seats
		if seats < multiplayer.MinSeats || seats > multiplayer.MaxSeats {
			seats = multiplayer.MinSeats
		}
		ruleset := e.Ruleset
		if ruleset == "" {
			ruleset = r.config.DefaultRuleset
		}
		rm = &room{code: e.Room, seats: seats, ruleset: ruleset}
		r.rooms[e.Room] = rm
		r.logger.Info("room created", "room", rm.code, "seats", seats, "ruleset", ruleset)
	}
	if rm.started || len(rm.members) >= rm.seats {
		r.reply(c, Envelope{Type: TypeError, Room: e.Room, Error: ErrRoomFull.Error()})
		return
	}

	c.name = e.Name
	c.room = rm
	c.seat = len(rm.members)
	rm.members = append(rm.members, c)

	names := rm.names()
	for _, m := range rm.members {
		r.reply(m, Envelope{Type: TypeJoined, Room: rm.code, Seat: m.seat, Seats: rm.seats, Names: names, Ruleset: rm.ruleset})
	}
	if len(rm.members) < rm.seats {
		return
	}

	rm.started = true
	rm.match = multiplayer.NewMatchID()
	seed := multiplayer.NewSeed()
	r.logger.Info("match started", "room", rm.code, "match", rm.match, "players", names)
	for _, m := range rm.members {
		r.reply(m, Envelope{
			Type:    TypeStart,
			Room:    rm.code,
			Match:   string(rm.match),
			Seat:    m.seat,
			Seats:   rm.seats,
			Names:   names,
			Seed:    seed,
			Ruleset: rm.ruleset,
		})
	}
}

// forward sends a record from c to every other member of its room.
func (r *Relay) forward(c *client, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := c.room
	if rm == nil || !rm.started {
		r.reply(c, Envelope{Type: TypeError, Error: ErrBadRequest.Error()})
		return
	}
	for _, m := range rm.members {
		if m != c {
			r.reply(m, Envelope{Type: TypeRecord, Room: rm.code, Seat: c.seat, Payload: payload})
		}
	}
}

func (r *Relay) leave(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer close(c.send)
	rm := c.room
	if rm == nil {
		return
	}
	for i, m := range rm.members {
		if m == c {
			rm.members = append(rm.members[:i], rm.members[i+1:]...)
			break
		}
	}
	if !rm.started {
		for i, m := range rm.members {
			m.seat = i
		}
	}
	for _, m := range rm.members {
		r.reply(m, Envelope{Type: TypeLeft, Room: rm.code, Seat: c.seat, Name: c.name, Names: rm.names()})
	}
	if len(rm.members) == 0 {
		delete(r.rooms, rm.code)
		r.logger.Info("room closed", "room", rm.code)
	}
}
