package domain

import "errors"

var (
	// ErrCallFull is fatal: the room already holds two other participants.
	ErrCallFull = errors.New("call full")
	// ErrJoinFailure wraps transport errors during join or create. The user
	// may retry with "call again"; the session never retries on its own.
	ErrJoinFailure = errors.New("join failure")
	// ErrSignalingUnavailable marks dropped outbound events.
	ErrSignalingUnavailable = errors.New("signaling unavailable")
	// ErrStaleEvent marks events for another call or a terminal session.
	ErrStaleEvent = errors.New("stale event")

	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room exists")
)
