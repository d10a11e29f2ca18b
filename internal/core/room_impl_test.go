package core_test

import (
	"testing"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomEnforcesTwoParticipants(t *testing.T) {
	room := core.NewRoomService("conv-1-1", 2)

	_, err := room.Join("alice")
	require.NoError(t, err)
	info, err := room.Join("bob")
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"alice", "bob"}, info.Participants)

	info, err = room.Join("carol")
	assert.ErrorIs(t, err, domain.ErrCallFull)
	assert.Equal(t, 2, room.MemberCount())
	assert.False(t, info.Has("carol"))
}

func TestRoomJoinIsIdempotentForMembers(t *testing.T) {
	room := core.NewRoomService("conv-1-1", 2)
	_, err := room.Join("alice")
	require.NoError(t, err)
	_, err = room.Join("bob")
	require.NoError(t, err)

	info, err := room.Join("alice")
	require.NoError(t, err)
	assert.Len(t, info.Participants, 2)
}

func TestRoomCapIsClamped(t *testing.T) {
	room := core.NewRoomService("conv-1-1", 8)
	assert.Equal(t, domain.MaxParticipants, room.Info().MaxParticipants)
}

func TestRoomLeave(t *testing.T) {
	room := core.NewRoomService("conv-1-1", 2)
	_, _ = room.Join("alice")
	_, _ = room.Join("bob")

	assert.True(t, room.Leave("alice"))
	assert.False(t, room.Leave("alice"))
	assert.Equal(t, []domain.UserID{"bob"}, room.Info().Participants)

	_, err := room.Join("carol")
	assert.NoError(t, err)
}
