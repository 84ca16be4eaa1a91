// Package protocol encodes the records peers exchange to stay in lockstep:
// piece placements, garbage resolutions and confirmations. Records are
// positional and pipe-delimited; anything that does not match the expected
// shape is a desynchronization.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDesync reports a record that does not match its expected shape. The
// match cannot continue after it.
var ErrDesync = errors.New("protocol: desync")

// MarginTolerance is how far, in frames, an incoming margin timer may run
// ahead of the local one and still be adopted.
const MarginTolerance = 20 * 60

// Kind identifies a record type by its leading tag.
type Kind byte

const (
	KindPlacement Kind = 'p'
	KindGarbage   Kind = 'g'
	KindNoGarbage Kind = 'n'
	KindConfirm   Kind = 'c'
)

const (
	separator       = "|"
	placementFields = 17
	garbageFields   = 2
	confirmFields   = 2
)

// Message is one decoded record.
type Message struct {
	Kind      Kind
	Placement Placement // KindPlacement only
	Garbage   int       // KindGarbage only
	Seat      int       // KindConfirm only: the seat whose garbage record is acknowledged
}

// NewPlacement returns a placement record.
func NewPlacement(p Placement) Message { return Message{Kind: KindPlacement, Placement: p} }

// NewGarbage returns a garbage record for n dropped nuisance puyo.
func NewGarbage(n int) Message { return Message{Kind: KindGarbage, Garbage: n} }

// NewNoGarbage returns the record sent when a garbage phase dropped nothing.
func NewNoGarbage() Message { return Message{Kind: KindNoGarbage} }

// NewConfirm returns the record acknowledging a garbage record of seat.
func NewConfirm(seat int) Message { return Message{Kind: KindConfirm, Seat: seat} }

// Encode renders the record.
func Encode(m Message) string {
	switch m.Kind {
	case KindPlacement:
		return m.Placement.encode()
	case KindGarbage:
		return "g" + separator + strconv.Itoa(m.Garbage)
	case KindNoGarbage:
		return "n"
	case KindConfirm:
		return "c" + separator + strconv.Itoa(m.Seat)
	}
	return ""
}

// Decode parses a record. Unknown tags, wrong field counts and
// non-numeric fields all return an error wrapping ErrDesync.
func Decode(s string) (Message, error) {
	if s == "" {
		return Message{}, fmt.Errorf("protocol: empty record: %w", ErrDesync)
	}
	fields := strings.Split(s, separator)
	if len(fields[0]) != 1 {
		return Message{}, fmt.Errorf("protocol: bad tag %q: %w", fields[0], ErrDesync)
	}

	switch Kind(fields[0][0]) {
	case KindPlacement:
		p, err := decodePlacement(fields)
		if err != nil {
			return Message{}, err
		}
		return NewPlacement(p), nil
	case KindGarbage:
		if len(fields) != garbageFields {
			return Message{}, fmt.Errorf("protocol: garbage record has %d fields: %w", len(fields), ErrDesync)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return Message{}, fmt.Errorf("protocol: bad garbage count %q: %w", fields[1], ErrDesync)
		}
		return NewGarbage(n), nil
	case KindConfirm:
		if len(fields) != confirmFields {
			return Message{}, fmt.Errorf("protocol: confirm record has %d fields: %w", len(fields), ErrDesync)
		}
		seat, err := strconv.Atoi(fields[1])
		if err != nil || seat < 0 {
			return Message{}, fmt.Errorf("protocol: bad confirm seat %q: %w", fields[1], ErrDesync)
		}
		return NewConfirm(seat), nil
	case KindNoGarbage:
		if len(fields) != 1 {
			return Message{}, fmt.Errorf("protocol: %q record has %d fields: %w", fields[0], len(fields), ErrDesync)
		}
		return NewNoGarbage(), nil
	}
	return Message{}, fmt.Errorf("protocol: unknown tag %q: %w", fields[0], ErrDesync)
}

// Peek returns the kind of a raw record without decoding it.
func Peek(s string) Kind {
	if s == "" {
		return 0
	}
	return Kind(s[0])
}

// AcceptMargin reports whether an incoming margin timer should replace the
// local one.
func AcceptMargin(local, incoming int) bool {
	return local+MarginTolerance >= incoming
}
