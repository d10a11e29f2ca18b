package core

import (
	"github.com/dkeye/duet/internal/domain"
)

// RoomService is the relay-side view of one call room.
// It owns the membership set and enforces the participant cap; it never
// touches transport resources.
type RoomService interface {
	Info() domain.RoomInfo
	MemberCount() int
	// Join is idempotent for an existing member and returns
	// domain.ErrCallFull, leaving membership untouched, when the room is
	// at capacity.
	Join(user domain.UserID) (domain.RoomInfo, error)
	Leave(user domain.UserID) bool
}

type RoomManager interface {
	Get(id domain.CallID) (RoomService, bool)
	// Create returns domain.ErrRoomExists if id is taken.
	Create(id domain.CallID, maxParticipants int) (RoomService, error)
	List() []domain.RoomInfo
	StopRoom(id domain.CallID)
	// RemoveUser drops user from every room and returns the affected ids.
	RemoveUser(user domain.UserID) []domain.CallID
}
