package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_JoinAndParticipants(t *testing.T) {
	ctx := context.Background()
	d := NewMemory()

	require.NoError(t, d.Join(ctx, "p2", "room"))
	require.NoError(t, d.Join(ctx, "p1", "room"))
	// joining twice is a no-op
	require.NoError(t, d.Join(ctx, "p1", "room"))

	peers, err := d.Participants(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, peers)
}

func TestMemory_UnknownRoomIsEmpty(t *testing.T) {
	d := NewMemory()

	peers, err := d.Participants(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestMemory_Leave(t *testing.T) {
	ctx := context.Background()
	d := NewMemory()

	require.NoError(t, d.Join(ctx, "p1", "room"))
	require.NoError(t, d.Leave(ctx, "p1", "room"))
	// leaving again is harmless
	require.NoError(t, d.Leave(ctx, "p1", "room"))

	peers, err := d.Participants(ctx, "room")
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestMemory_LeaveAll(t *testing.T) {
	ctx := context.Background()
	d := NewMemory()

	require.NoError(t, d.Join(ctx, "p1", "a"))
	require.NoError(t, d.Join(ctx, "p1", "b"))
	require.NoError(t, d.Join(ctx, "p2", "b"))

	require.NoError(t, d.LeaveAll(ctx, "p1"))

	peersA, err := d.Participants(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, peersA)

	peersB, err := d.Participants(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, peersB)

	// unknown peer is a no-op
	require.NoError(t, d.LeaveAll(ctx, "ghost"))
}
