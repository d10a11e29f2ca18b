package domain

import "slices"

// MaxParticipants is the hard cap of a call room.
const MaxParticipants = 2

type RoomState string

const (
	RoomConnecting RoomState = "connecting"
	RoomActive     RoomState = "active"
	RoomEnded      RoomState = "ended"
	RoomFailed     RoomState = "failed"
)

// Done reports whether a new media session may replace one in this state.
func (s RoomState) Done() bool {
	return s == RoomEnded || s == RoomFailed
}

// RoomInfo is the transport's view of a room.
type RoomInfo struct {
	CallID          CallID   `json:"call_id"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []UserID `json:"participants"`
}

func (r RoomInfo) Has(id UserID) bool {
	return slices.Contains(r.Participants, id)
}

func (r RoomInfo) Full() bool {
	limit := r.MaxParticipants
	if limit <= 0 || limit > MaxParticipants {
		limit = MaxParticipants
	}
	return len(r.Participants) >= limit
}

// Other returns the first participant that is not self.
func (r RoomInfo) Other(self UserID) (UserID, bool) {
	for _, id := range r.Participants {
		if id != self {
			return id, true
		}
	}
	return "", false
}
