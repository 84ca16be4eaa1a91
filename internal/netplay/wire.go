// Package netplay carries match records between clients over websockets.
// A Relay seats clients into rooms and forwards each record to the other
// members of the room; a Client is the matching multiplayer.Transport.
package netplay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message types.
const (
	TypeJoin   = "join"   // client asks for a seat
	TypeJoined = "joined" // room members changed
	TypeStart  = "start"  // room is full, match begins
	TypeRecord = "record" // one protocol record
	TypeLeft   = "left"   // a member disconnected
	TypeError  = "error"
)

var (
	ErrRoomFull    = errors.New("netplay: room full")
	ErrBadRequest  = errors.New("netplay: bad request")
	ErrDisconnect  = errors.New("netplay: disconnected")
	ErrRelayFailed = errors.New("netplay: relay error")
)

// Envelope is one websocket message.
type Envelope struct {
	Type    string   `json:"type"`
	Room    string   `json:"room,omitempty"`
	Match   string   `json:"match,omitempty"`
	Name    string   `json:"name,omitempty"`
	Seat    int      `json:"seat"`
	Seats   int      `json:"seats,omitempty"`
	Names   []string `json:"names,omitempty"`
	Seed    int64    `json:"seed,omitempty"`
	Ruleset string   `json:"ruleset,omitempty"`
	Payload string   `json:"payload,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func encode(e Envelope) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("netplay: cannot encode %s: %w", e.Type, err)
	}
	return b, nil
}

func decode(b []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("netplay: cannot decode message: %w", err)
	}
	if e.Type == "" {
		return e, fmt.Errorf("%w: missing type", ErrBadRequest)
	}
	return e, nil
}
