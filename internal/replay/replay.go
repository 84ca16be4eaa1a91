// Package replay records the protocol messages of a match and plays them
// back. A replay holds one message list per player keyed by match frame;
// re-running the match with the same seed and messages reproduces it.
package replay

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// Magic opens every replay file.
	Magic = "RPVS"
	// Version is the current replay format.
	Version = 3
)

var (
	ErrBadMagic = errors.New("replay: bad magic")
	ErrVersion  = errors.New("replay: unsupported version")
)

// Message is one recorded protocol message.
type Message struct {
	Frame   int    `msgpack:"f"`
	Payload string `msgpack:"p"`
}

// Header describes a replay. Date is YYYY:MM:DD, Time is HH:MM:SS and
// Duration counts frames.
type Header struct {
	Magic    string `msgpack:"magic"`
	Version  int    `msgpack:"version"`
	Date     string `msgpack:"date"`
	Time     string `msgpack:"time"`
	Duration int    `msgpack:"duration"`
	Players  int    `msgpack:"players"`
	Seed     uint64 `msgpack:"seed"`
	Ruleset  string `msgpack:"ruleset"`
}

// NewHeader fills a header stamped with t.
func NewHeader(t time.Time, duration, players int, seed uint64, ruleset string) Header {
	return Header{
		Magic:    Magic,
		Version:  Version,
		Date:     t.Format("2006:01:02"),
		Time:     t.Format("15:04:05"),
		Duration: duration,
		Players:  players,
		Seed:     seed,
		Ruleset:  ruleset,
	}
}

// PlayerRecord is the recorded side of one player.
type PlayerRecord struct {
	Name     string    `msgpack:"name"`
	Kind     string    `msgpack:"kind"`
	Messages []Message `msgpack:"messages"`
}

// File is a complete replay.
type File struct {
	Header  Header         `msgpack:"header"`
	Players []PlayerRecord `msgpack:"players"`
}

// Recorder collects messages while a match runs.
type Recorder struct {
	mu      sync.Mutex
	players []PlayerRecord
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// AddPlayer registers a player and returns its index.
func (r *Recorder) AddPlayer(name, kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.players = append(r.players, PlayerRecord{Name: name, Kind: kind})
	return len(r.players) - 1
}

// Record appends a message for player at frame. Unknown players are ignored.
func (r *Recorder) Record(player, frame int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if player < 0 || player >= len(r.players) {
		return
	}
	p := &r.players[player]
	p.Messages = append(p.Messages, Message{Frame: frame, Payload: message})
}

// Messages returns a copy of the messages recorded for player.
func (r *Recorder) Messages(player int) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	if player < 0 || player >= len(r.players) {
		return nil
	}
	return append([]Message(nil), r.players[player].Messages...)
}

// File snapshots the recording under header h.
func (r *Recorder) File(h Header) *File {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := &File{Header: h, Players: make([]PlayerRecord, len(r.players))}
	for i, p := range r.players {
		f.Players[i] = PlayerRecord{
			Name:     p.Name,
			Kind:     p.Kind,
			Messages: append([]Message(nil), p.Messages...),
		}
	}
	f.Header.Players = len(f.Players)
	return f
}

// Save writes the replay as gzip compressed msgpack.
func (f *File) Save(w io.Writer) error {
	gz := gzip.NewWriter(w)
	if err := msgpack.NewEncoder(gz).Encode(f); err != nil {
		gz.Close()
		return fmt.Errorf("replay: cannot encode: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("replay: cannot compress: %w", err)
	}
	return nil
}

// Load reads a replay written by Save.
func Load(r io.Reader) (*File, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("replay: cannot decompress: %w", err)
	}
	defer gz.Close()

	var f File
	if err := msgpack.NewDecoder(gz).Decode(&f); err != nil {
		return nil, fmt.Errorf("replay: cannot decode: %w", err)
	}
	if f.Header.Magic != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, f.Header.Magic)
	}
	if f.Header.Version > Version || f.Header.Version < 1 {
		return nil, fmt.Errorf("%w: %d", ErrVersion, f.Header.Version)
	}
	return &f, nil
}

// SaveFile writes the replay to path, creating its directory.
func SaveFile(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("replay: cannot create directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("replay: cannot create %s: %w", path, err)
	}
	if err := f.Save(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// LoadFile reads a replay from path.
func LoadFile(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: cannot open %s: %w", path, err)
	}
	defer in.Close()
	return Load(in)
}
