package multiplayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsToOthers(t *testing.T) {
	hub := NewHub()
	a := hub.Join("m1", 0)
	b := hub.Join("m1", 1)
	c := hub.Join("m1", 2)
	other := hub.Join("m2", 0)

	require.NoError(t, a.Send("m1", "p|0"))
	require.NoError(t, a.Send("m1", "n"))

	for _, e := range []*Endpoint{b, c} {
		got := <-e.Receive()
		assert.Equal(t, Envelope{Channel: "m1", From: 0, Payload: "p|0"}, got)
		got = <-e.Receive()
		assert.Equal(t, "n", got.Payload)
	}
	assert.Empty(t, a.Receive(), "sender must not receive its own records")
	assert.Empty(t, other.Receive(), "other channels must not receive records")
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	a := hub.Join("m1", 0)
	b := hub.Join("m1", 1)
	assert.Equal(t, 2, hub.Members("m1"))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, hub.Members("m1"))

	_, open := <-b.Receive()
	assert.False(t, open)

	require.NoError(t, a.Send("m1", "n"), "sending to an empty channel is not an error")
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Send("m1", "n"), ErrClosed)
	assert.Equal(t, 0, hub.Members("m1"))
}

func TestHubBufferFull(t *testing.T) {
	hub := NewHub()
	a := hub.Join("m1", 0)
	hub.Join("m1", 1)

	for i := 0; i < InboxSize; i++ {
		require.NoError(t, a.Send("m1", "n"))
	}
	assert.ErrorIs(t, a.Send("m1", "n"), ErrBufferFull)
}

func TestMatchModeString(t *testing.T) {
	assert.Equal(t, "vs CPU", MatchModeVsCPU.String())
	assert.Equal(t, "Online", MatchModeOnline.String())
	assert.Equal(t, "Replay", MatchModeReplay.String())
	assert.NotEqual(t, NewMatchID(), NewMatchID())
}
