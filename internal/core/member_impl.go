package core

import "github.com/dkeye/duet/internal/domain"

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	meta   domain.Participant
	signal SignalConnection
}

func NewMemberSession(meta domain.Participant, signal SignalConnection) MemberSession {
	return &memberSession{meta: meta, signal: signal}
}

func (m *memberSession) Meta() domain.Participant { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.signal }
