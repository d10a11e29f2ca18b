package domain_test

import (
	"testing"
	"time"

	"github.com/dkeye/duet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallIDBase(t *testing.T) {
	assert.Equal(t, "conv-42", domain.CallID("conv-42-1000").Base())
	assert.Equal(t, "plain", domain.CallID("plain").Base())
}

func TestNewCallID(t *testing.T) {
	id := domain.NewCallID("conv-42", time.UnixMilli(1000))
	assert.Equal(t, domain.CallID("conv-42-1000"), id)

	assert.Equal(t, "call", domain.NewCallID("  ", time.UnixMilli(5)).Base())
}

func TestCallIDNextKeepsBase(t *testing.T) {
	id := domain.CallID("conv-42-1000")

	later := id.Next(time.UnixMilli(2500))
	assert.Equal(t, domain.CallID("conv-42-2500"), later)
	assert.Equal(t, id.Base(), later.Base())

	// clock did not move
	same := id.Next(time.UnixMilli(1000))
	assert.Equal(t, domain.CallID("conv-42-1001"), same)

	// clock went backwards
	back := id.Next(time.UnixMilli(10))
	assert.NotEqual(t, id, back)
	assert.Equal(t, "conv-42", back.Base())
}

func TestParseCallID(t *testing.T) {
	id, err := domain.ParseCallID("conv-42-1000")
	require.NoError(t, err)
	assert.Equal(t, domain.CallID("conv-42-1000"), id)

	_, err = domain.ParseCallID("")
	assert.ErrorIs(t, err, domain.ErrCallIDEmpty)

	for _, bad := range []string{"nodash", "-1", "trailing-"} {
		_, err = domain.ParseCallID(bad)
		assert.ErrorIs(t, err, domain.ErrCallIDInvalid, bad)
	}
}

func TestRoomInfo(t *testing.T) {
	r := domain.RoomInfo{MaxParticipants: 2, Participants: []domain.UserID{"a"}}
	assert.True(t, r.Has("a"))
	assert.False(t, r.Full())

	r.Participants = append(r.Participants, "b")
	assert.True(t, r.Full())
	other, ok := r.Other("a")
	assert.True(t, ok)
	assert.Equal(t, domain.UserID("b"), other)

	// a larger cap is clamped to the two-party limit
	r.MaxParticipants = 10
	assert.True(t, r.Full())
}

func TestNewParticipant(t *testing.T) {
	p, err := domain.NewParticipant("alice", "", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.DisplayName)

	_, err = domain.NewParticipant("", "x", "")
	assert.ErrorIs(t, err, domain.ErrUserIDEmpty)
}
