package invite_test

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/duet/internal/app/invite"
	"github.com/dkeye/duet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Participant{ID: "alice", DisplayName: "Alice"}
	bob   = domain.Participant{ID: "bob", DisplayName: "Bob"}
	t0    = time.UnixMilli(1000)
)

func outgoing() *invite.Session {
	return invite.NewOutgoing("conv-42-1000", alice, bob, t0, 15*time.Second)
}

func incoming() *invite.Session {
	ev := domain.NewInvite("conv-42-1000", alice, bob, t0)
	return invite.NewIncoming(ev, bob, t0)
}

func TestNewSessionsRing(t *testing.T) {
	out := outgoing()
	assert.Equal(t, domain.PhaseRinging, out.Phase())
	assert.Equal(t, domain.RoleCaller, out.Role())
	assert.Equal(t, t0.Add(15*time.Second), out.Deadline())
	assert.Equal(t, bob, out.Counterpart())

	in := incoming()
	assert.Equal(t, domain.PhaseRinging, in.Phase())
	assert.Equal(t, domain.RoleCallee, in.Role())
	assert.True(t, in.Deadline().IsZero())
	assert.Equal(t, alice, in.Counterpart())
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		trigger invite.Trigger
		session func() *invite.Session
		phase   domain.Phase
		emits   []domain.EventType
	}{
		{invite.LocalAccept, incoming, domain.PhaseAccepted, []domain.EventType{domain.EventAccept, domain.EventStartSession}},
		{invite.RemoteAccept, outgoing, domain.PhaseAccepted, nil},
		{invite.LocalDecline, incoming, domain.PhaseDeclined, []domain.EventType{domain.EventDecline}},
		{invite.RemoteDecline, outgoing, domain.PhaseDeclined, nil},
		{invite.LocalCancel, outgoing, domain.PhaseCancelled, []domain.EventType{domain.EventCancel}},
		{invite.RemoteCancel, incoming, domain.PhaseCancelled, nil},
		{invite.Deadline, outgoing, domain.PhaseTimedOut, []domain.EventType{domain.EventTimeout}},
		{invite.RemoteTimeout, incoming, domain.PhaseTimedOut, nil},
	}
	for _, tc := range cases {
		t.Run(string(tc.trigger), func(t *testing.T) {
			s := tc.session()
			tr, err := s.Apply(context.Background(), tc.trigger, t0.Add(time.Second))
			require.NoError(t, err)
			assert.Equal(t, tc.phase, s.Phase())
			assert.Equal(t, tc.emits, tr.Effects.Emits())

			h := s.History()
			require.Len(t, h, 1)
			assert.Equal(t, domain.PhaseRinging, h[0].From)
			assert.Equal(t, tc.phase, h[0].To)
		})
	}
}

func TestHandOffOnlyOnAccept(t *testing.T) {
	for _, tr := range invite.Transitions {
		assert.Equal(t, tr.To == domain.PhaseAccepted, tr.Effects.Has(invite.HandOff), tr.Trigger)
	}
}

func TestWrongRoleDoesNotTransition(t *testing.T) {
	s := outgoing()
	_, err := s.Apply(context.Background(), invite.LocalAccept, t0)
	assert.ErrorIs(t, err, invite.ErrWrongRole)
	assert.Equal(t, domain.PhaseRinging, s.Phase())

	s = incoming()
	_, err = s.Apply(context.Background(), invite.Deadline, t0)
	assert.ErrorIs(t, err, invite.ErrWrongRole)
	assert.True(t, s.Ringing())
}

func TestTerminalIsFinal(t *testing.T) {
	s := outgoing()
	_, err := s.Apply(context.Background(), invite.RemoteAccept, t0)
	require.NoError(t, err)

	// the deadline firing after acceptance must not time the call out
	_, err = s.Apply(context.Background(), invite.Deadline, t0.Add(15*time.Second))
	assert.ErrorIs(t, err, domain.ErrStaleEvent)
	assert.Equal(t, domain.PhaseAccepted, s.Phase())

	_, err = s.Apply(context.Background(), invite.RemoteDecline, t0)
	assert.ErrorIs(t, err, domain.ErrStaleEvent)
	assert.Len(t, s.History(), 1)
}

func TestDuplicateTerminalEventIsNoop(t *testing.T) {
	s := incoming()
	_, err := s.Apply(context.Background(), invite.RemoteCancel, t0)
	require.NoError(t, err)
	before := s.History()

	_, err = s.Apply(context.Background(), invite.RemoteCancel, t0.Add(time.Second))
	assert.ErrorIs(t, err, domain.ErrStaleEvent)
	assert.Equal(t, domain.PhaseCancelled, s.Phase())
	assert.Equal(t, before, s.History())
}

func TestUnknownTrigger(t *testing.T) {
	_, err := outgoing().Apply(context.Background(), "hold", t0)
	assert.ErrorIs(t, err, invite.ErrUnknownTrigger)
}

func TestForEvent(t *testing.T) {
	tr, ok := invite.ForEvent(domain.RoleCaller, domain.EventAccept)
	assert.True(t, ok)
	assert.Equal(t, invite.RemoteAccept, tr)

	tr, ok = invite.ForEvent(domain.RoleCallee, domain.EventTimeout)
	assert.True(t, ok)
	assert.Equal(t, invite.RemoteTimeout, tr)

	_, ok = invite.ForEvent(domain.RoleCallee, domain.EventAccept)
	assert.False(t, ok)
	_, ok = invite.ForEvent(domain.RoleCaller, domain.EventCancel)
	assert.False(t, ok)
}

func TestOutboundEvents(t *testing.T) {
	out := outgoing()
	ev := out.Event(domain.EventInvite, t0)
	assert.Equal(t, domain.EventInvite, ev.Type)
	assert.Equal(t, domain.UserID("bob"), ev.To)
	assert.Equal(t, "Alice", ev.CallerDisplay)

	in := incoming()
	ev = in.Event(domain.EventDecline, t0)
	assert.Equal(t, domain.CallID("conv-42-1000"), ev.CallID)
	assert.Equal(t, domain.UserID("bob"), ev.From)
	assert.Equal(t, domain.UserID("alice"), ev.To)
}

func TestUpdateCounterpartKeepsIdentity(t *testing.T) {
	s := incoming()
	assert.False(t, s.UpdateCounterpart(domain.Participant{ID: "mallory", DisplayName: "M"}))
	assert.True(t, s.UpdateCounterpart(domain.Participant{ID: "alice", DisplayName: "Alice A.", AvatarRef: "a.png"}))
	assert.Equal(t, "a.png", s.Counterpart().AvatarRef)
}
