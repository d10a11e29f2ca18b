package core

import (
	"context"

	"github.com/dkeye/duet/internal/domain"
)

//go:generate mockgen -source=media_iface.go -destination=mocks/media_mock.go -package=mocks

type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// MediaTrack is a local capture track (camera or microphone).
type MediaTrack interface {
	ID() string
	Kind() TrackKind
	Active() bool
	// Stop releases the capture. After Stop returns the track is inactive
	// even if an error is reported.
	Stop() error
}

// RoomHandle is the transport's handle on a joined (or to be left) room.
type RoomHandle interface {
	CallID() domain.CallID
	// Participants is the handle's current view of the room.
	Participants() []domain.UserID
	// LocalTracks is the media stream retained by this handle.
	LocalTracks() []MediaTrack
}

// MediaTransport is the media SDK client: one instance per local user.
type MediaTransport interface {
	// GetRoom returns domain.ErrRoomNotFound when no room exists for id.
	GetRoom(ctx context.Context, id domain.CallID) (domain.RoomInfo, error)
	// CreateRoom returns domain.ErrRoomExists when another party won the race.
	CreateRoom(ctx context.Context, id domain.CallID, maxParticipants int) (domain.RoomInfo, error)
	// JoinRoom returns domain.ErrCallFull without mutating the room when it
	// already holds two other participants.
	JoinRoom(ctx context.Context, id domain.CallID) (RoomHandle, error)
	// NewHandle builds a handle for id without joining.
	NewHandle(id domain.CallID) RoomHandle
	LeaveRoom(ctx context.Context, h RoomHandle) error
	// DisconnectClient tears down the client identity used for media.
	DisconnectClient(ctx context.Context) error
	// LocalMediaTracks is the media stream retained by the client itself.
	LocalMediaTracks() []MediaTrack
}

// Directory resolves a richer counterpart snapshot. It is optional and
// never on the critical path of a call.
type Directory interface {
	Lookup(ctx context.Context, id domain.UserID) (domain.Participant, error)
}

// ActiveTracks counts tracks still capturing.
func ActiveTracks(tracks ...[]MediaTrack) int {
	n := 0
	for _, ts := range tracks {
		for _, t := range ts {
			if t != nil && t.Active() {
				n++
			}
		}
	}
	return n
}
