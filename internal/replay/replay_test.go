package replay

import (
	"bytes"
	"compress/gzip"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func sampleRecorder() *Recorder {
	r := NewRecorder()
	a := r.AddPlayer("alice", "human")
	b := r.AddPlayer("cpu", "cpu")
	r.Record(a, 10, "p|0|1|-1|2|0|2|1|-1|-1|-1|-1|0|0|10|2|0")
	r.Record(a, 40, "n")
	r.Record(b, 25, "p|2|2|-1|0|0|1|0|-1|-1|-1|-1|0|0|25|2|0")
	r.Record(b, 25, "g|4")
	return r
}

func TestNewHeader(t *testing.T) {
	at := time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC)
	h := NewHeader(at, 3600, 2, 42, "tsu")

	assert.Equal(t, Magic, h.Magic)
	assert.Equal(t, Version, h.Version)
	assert.Equal(t, "2024:03:09", h.Date)
	assert.Equal(t, "07:05:02", h.Time)
	assert.Equal(t, 3600, h.Duration)
	assert.Equal(t, uint64(42), h.Seed)
}

func TestRecorder(t *testing.T) {
	r := sampleRecorder()

	msgs := r.Messages(0)
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{Frame: 40, Payload: "n"}, msgs[1])

	r.Record(7, 1, "n")
	assert.Nil(t, r.Messages(7))

	f := r.File(NewHeader(time.Now(), 100, 0, 1, "tsu"))
	assert.Equal(t, 2, f.Header.Players)

	// the snapshot does not follow later records
	r.Record(0, 90, "n")
	assert.Len(t, f.Players[0].Messages, 2)
}

func TestSaveLoad(t *testing.T) {
	f := sampleRecorder().File(NewHeader(time.Now(), 100, 2, 99, "fever"))

	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))

	got, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Header, got.Header)
	require.Len(t, got.Players, 2)
	assert.Equal(t, f.Players[1].Messages, got.Players[1].Messages)
	assert.Equal(t, "alice", got.Players[0].Name)
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "match.rpvs")
	f := sampleRecorder().File(NewHeader(time.Now(), 100, 2, 7, "tsu"))

	require.NoError(t, SaveFile(path, f))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Header.Seed)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.rpvs"))
	assert.Error(t, err)
}

func encodeRaw(t *testing.T, f *File) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	require.NoError(t, msgpack.NewEncoder(gz).Encode(f))
	require.NoError(t, gz.Close())
	return &buf
}

func TestLoadRejects(t *testing.T) {
	bad := &File{Header: Header{Magic: "XXXX", Version: Version}}
	_, err := Load(encodeRaw(t, bad))
	assert.ErrorIs(t, err, ErrBadMagic)

	future := &File{Header: Header{Magic: Magic, Version: Version + 1}}
	_, err = Load(encodeRaw(t, future))
	assert.ErrorIs(t, err, ErrVersion)

	_, err = Load(bytes.NewBufferString("not gzip"))
	assert.Error(t, err)
}

func TestPlaybackDue(t *testing.T) {
	p := NewPlayer(sampleRecorder().File(NewHeader(time.Now(), 50, 2, 1, "tsu")))

	assert.Empty(t, p.Due(0, 9))
	assert.Equal(t, []string{"p|0|1|-1|2|0|2|1|-1|-1|-1|-1|0|0|10|2|0"}, p.Due(0, 10))
	assert.Empty(t, p.Due(0, 10), "messages are delivered once")
	assert.Len(t, p.Due(1, 30), 2)
	assert.Nil(t, p.Due(5, 30))

	p.Reset()
	assert.Len(t, p.Due(0, 100), 2)

	assert.False(t, p.Done(49))
	assert.True(t, p.Done(50))
}

func TestPlaybackStates(t *testing.T) {
	p := NewPlayer(&File{Header: Header{Duration: 10}})

	tests := []struct {
		state State
		speed int
	}{
		{Normal, 1},
		{Paused, 0},
		{FastForward, 2},
		{FastForwardX4, 4},
		{Rewind, 1},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			p.SetState(tt.state)
			assert.Equal(t, tt.state, p.State())
			assert.Equal(t, tt.speed, p.Speed())
		})
	}

	assert.Equal(t, 0, p.RewindTarget(100))
	assert.Equal(t, 20, p.RewindTarget(RewindFrames+20))
}
