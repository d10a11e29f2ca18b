// Package invite holds the per-attempt invitation state machine. A Session
// is owned by the coordinator's loop and is not safe for concurrent use.
package invite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/duet/internal/domain"
	"github.com/looplab/fsm"
)

var (
	ErrWrongRole      = errors.New("trigger not valid for role")
	ErrUnknownTrigger = errors.New("unknown trigger")
)

// Step is one applied transition.
type Step struct {
	Trigger Trigger
	From    domain.Phase
	To      domain.Phase
	At      time.Time
}

type Session struct {
	id          domain.CallID
	role        domain.Role
	local       domain.Participant
	counterpart domain.Participant
	createdAt   time.Time
	deadline    time.Time

	machine *fsm.FSM
	history []Step
}

// NewOutgoing starts a caller-side session ringing until now+ringTimeout.
func NewOutgoing(id domain.CallID, caller, callee domain.Participant, now time.Time, ringTimeout time.Duration) *Session {
	s := newSession(id, domain.RoleCaller, caller, callee, now)
	s.deadline = now.Add(ringTimeout)
	return s
}

// NewIncoming starts a callee-side session from an inbound invite.
func NewIncoming(ev domain.Event, callee domain.Participant, now time.Time) *Session {
	return newSession(ev.CallID, domain.RoleCallee, callee, ev.Caller(), now)
}

func newSession(id domain.CallID, role domain.Role, local, counterpart domain.Participant, now time.Time) *Session {
	events := make(fsm.Events, 0, len(Transitions))
	for _, tr := range Transitions {
		events = append(events, fsm.EventDesc{
			Name: string(tr.Trigger),
			Src:  []string{string(domain.PhaseRinging)},
			Dst:  string(tr.To),
		})
	}
	return &Session{
		id:          id,
		role:        role,
		local:       local,
		counterpart: counterpart,
		createdAt:   now,
		machine:     fsm.NewFSM(string(domain.PhaseRinging), events, fsm.Callbacks{}),
	}
}

func (s *Session) CallID() domain.CallID           { return s.id }
func (s *Session) Role() domain.Role               { return s.role }
func (s *Session) Local() domain.Participant       { return s.local }
func (s *Session) Counterpart() domain.Participant { return s.counterpart }
func (s *Session) CreatedAt() time.Time            { return s.createdAt }
func (s *Session) Phase() domain.Phase             { return domain.Phase(s.machine.Current()) }
func (s *Session) Ringing() bool                   { return s.Phase() == domain.PhaseRinging }
func (s *Session) History() []Step                 { return append([]Step(nil), s.history...) }

// Deadline is meaningful only for the caller; it is zero for the callee.
func (s *Session) Deadline() time.Time { return s.deadline }

// UpdateCounterpart replaces the counterpart snapshot with a richer one for
// the same user. It never changes who the call is with.
func (s *Session) UpdateCounterpart(p domain.Participant) bool {
	if p.ID != s.counterpart.ID {
		return false
	}
	s.counterpart = p
	return true
}

// Apply fires t. Once the session has left Ringing every trigger is stale
// and nothing changes.
func (s *Session) Apply(ctx context.Context, t Trigger, at time.Time) (Transition, error) {
	tr, ok := lookup(t)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s", ErrUnknownTrigger, t)
	}
	from := s.Phase()
	if from.Terminal() {
		return Transition{}, fmt.Errorf("%s in %s: %w", t, from, domain.ErrStaleEvent)
	}
	if tr.Role != s.role {
		return Transition{}, fmt.Errorf("%s as %s: %w", t, s.role, ErrWrongRole)
	}
	if err := s.machine.Event(ctx, string(t)); err != nil {
		return Transition{}, fmt.Errorf("apply %s: %w", t, err)
	}
	s.history = append(s.history, Step{Trigger: t, From: from, To: tr.To, At: at})
	return tr, nil
}

// Event builds an outbound signaling event for this call addressed to the
// counterpart.
func (s *Session) Event(t domain.EventType, at time.Time) domain.Event {
	if t == domain.EventInvite {
		return domain.NewInvite(s.id, s.local, s.counterpart, at)
	}
	return domain.Event{
		Type:   t,
		CallID: s.id,
		From:   s.local.ID,
		To:     s.counterpart.ID,
		SentAt: at,
	}
}
