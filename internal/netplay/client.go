package netplay

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
)

// JoinRequest asks the relay for a seat. Seats and Ruleset only matter to
// the client that creates the room.
type JoinRequest struct {
	Room    string
	Name    string
	Seats   int
	Ruleset string
}

// Client is a relay connection. After the match starts it carries records
// as a multiplayer.Transport.
type Client struct {
	conn   *websocket.Conn
	logger *log.Logger

	send  chan []byte
	inbox chan multiplayer.Envelope
	lobby chan Envelope
	start chan Envelope

	done      chan struct{}
	closeOnce sync.Once
	inboxOnce sync.Once
}

// Dial connects to the relay at url and asks for a seat.
func Dial(ctx context.Context, url string, req JoinRequest, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("netplay: cannot dial %s: %w", url, err)
	}
	c := &Client{
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, multiplayer.InboxSize),
		inbox:  make(chan multiplayer.Envelope, multiplayer.InboxSize),
		lobby:  make(chan Envelope, 16),
		start:  make(chan Envelope, 1),
		done:   make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()

	if err := c.write(Envelope{
		Type:    TypeJoin,
		Room:    req.Room,
		Name:    req.Name,
		Seats:   req.Seats,
		Ruleset: req.Ruleset,
	}); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// WaitStart blocks until the room is full. Lobby updates are passed to
// onLobby when it is not nil.
func (c *Client) WaitStart(ctx context.Context, onLobby func(Envelope)) (multiplayer.MatchInfo, int, error) {
	lobby := func(e Envelope) error {
		if e.Type == TypeError {
			if e.Error == ErrRoomFull.Error() {
				return ErrRoomFull
			}
			return fmt.Errorf("%w: %s", ErrRelayFailed, e.Error)
		}
		if onLobby != nil {
			onLobby(e)
		}
		return nil
	}
	for {
		select {
		case e := <-c.lobby:
			if err := lobby(e); err != nil {
				return multiplayer.MatchInfo{}, -1, err
			}
		case e := <-c.start:
			// Updates that arrived before the start are reported first.
			for pending := true; pending; {
				select {
				case l := <-c.lobby:
					if err := lobby(l); err != nil {
						return multiplayer.MatchInfo{}, -1, err
					}
				default:
					pending = false
				}
			}
			info := multiplayer.MatchInfo{
				ID:      multiplayer.MatchID(e.Match),
				Mode:    multiplayer.MatchModeOnline,
				Seed:    e.Seed,
				Ruleset: e.Ruleset,
				Names:   e.Names,
			}
			return info, e.Seat, nil
		case <-c.done:
			return multiplayer.MatchInfo{}, -1, ErrDisconnect
		case <-ctx.Done():
			return multiplayer.MatchInfo{}, -1, ctx.Err()
		}
	}
}

// Send queues a record for the other members of the room.
func (c *Client) Send(_ string, payload string) error {
	return c.write(Envelope{Type: TypeRecord, Payload: payload})
}

func (c *Client) write(e Envelope) error {
	b, err := encode(e)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return multiplayer.ErrClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		return multiplayer.ErrBufferFull
	}
}

// Receive returns the records of the other members. The channel closes when
// the connection is lost.
func (c *Client) Receive() <-chan multiplayer.Envelope { return c.inbox }

// Lobby returns lobby updates that arrive after WaitStart returned, such as
// members leaving.
func (c *Client) Lobby() <-chan Envelope { return c.lobby }

// Close ends the connection. Safe to call multiple times.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) writePump() {
	for {
		select {
		case message := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("relay write failed", "err", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.inboxOnce.Do(func() { close(c.inbox) })
		c.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		e, err := decode(raw)
		if err != nil {
			c.logger.Warn("bad relay message", "err", err)
			continue
		}
		switch e.Type {
		case TypeRecord:
			select {
			case c.inbox <- multiplayer.Envelope{Channel: e.Room, From: e.Seat, Payload: e.Payload}:
			default:
				c.logger.Error("inbox full, record dropped", "seat", e.Seat)
			}
		case TypeStart:
			select {
			case c.start <- e:
			default:
			}
		case TypeLeft:
			c.logger.Info("player left", "name", e.Name, "seat", e.Seat)
			c.pushLobby(e)
		default:
			c.pushLobby(e)
		}
	}
}

func (c *Client) pushLobby(e Envelope) {
	select {
	case c.lobby <- e:
	default:
	}
}
