package domain

import "time"

// Member represents a participant's presence in a relay room.
// No transport or lifecycle logic here.
type Member struct {
	User     UserID
	JoinedAt time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user UserID, at time.Time) *Member {
	return &Member{User: user, JoinedAt: at}
}
