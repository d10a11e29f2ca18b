package core

import "github.com/dkeye/duet/internal/domain"

type SessionID string

// MemberSession binds an authenticated participant and its signaling
// endpoint on the relay. This is what the relay registry routes to.
type MemberSession interface {
	Meta() domain.Participant
	Signal() SignalConnection
}
