package orch

import (
	"context"
	"errors"

	"github.com/dkeye/duet/internal/app"
	"github.com/dkeye/duet/internal/app/invite"
	"github.com/dkeye/duet/internal/domain"
)

// Invite rings callee with a call id derived from base.
func (c *Coordinator) Invite(ctx context.Context, base string, callee domain.Participant) (domain.CallID, error) {
	var id domain.CallID
	err := c.do(ctx, func() error {
		if c.busy() {
			return ErrBusy
		}
		now := c.clock.Now()
		id = domain.NewCallID(base, now)
		if c.last != nil && c.last.CallID().Base() == id.Base() {
			id = c.last.CallID().Next(now)
		}
		c.startOutgoing(id, callee)
		c.publish()
		return nil
	})
	return id, err
}

// CallAgain rings the last counterpart with a fresh id sharing the base of
// the ended attempt.
func (c *Coordinator) CallAgain(ctx context.Context) (domain.CallID, error) {
	var id domain.CallID
	err := c.do(ctx, func() error {
		if !c.view.Terminal() || c.last == nil {
			return ErrNothingToRetry
		}
		if c.busy() {
			return ErrBusy
		}
		id = c.last.CallID().Next(c.clock.Now())
		c.startOutgoing(id, c.last.Counterpart())
		c.publish()
		return nil
	})
	return id, err
}

// Accept answers the ringing incoming invitation. An active call is hung
// up first.
func (c *Coordinator) Accept(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.inv == nil || !c.inv.Ringing() || c.inv.Role() != domain.RoleCallee {
			return ErrNoInvitation
		}
		if c.media != nil {
			c.log.Info().Str("call_id", c.media.CallID().String()).Msg("accepting new call, hanging up current one")
			c.send(domain.Event{
				Type:   domain.EventEndCall,
				CallID: c.media.CallID(),
				From:   c.self.ID,
				To:     c.peer.ID,
				SentAt: c.clock.Now(),
			})
			c.endMedia()
		}
		c.resetTerminal()
		c.last = c.inv
		err := c.fire(c.inv, invite.LocalAccept)
		c.publish()
		return err
	})
}

func (c *Coordinator) Decline(ctx context.Context) error {
	return c.local(ctx, domain.RoleCallee, invite.LocalDecline)
}

func (c *Coordinator) Cancel(ctx context.Context) error {
	return c.local(ctx, domain.RoleCaller, invite.LocalCancel)
}

// Dismiss closes a terminal view.
func (c *Coordinator) Dismiss(ctx context.Context) error {
	return c.do(ctx, func() error {
		if !c.view.Terminal() {
			return nil
		}
		c.resetTerminal()
		c.settle()
		c.publish()
		return nil
	})
}

func (c *Coordinator) local(ctx context.Context, role domain.Role, t invite.Trigger) error {
	return c.do(ctx, func() error {
		if c.inv == nil || !c.inv.Ringing() || c.inv.Role() != role {
			return ErrNoInvitation
		}
		err := c.fire(c.inv, t)
		c.publish()
		return err
	})
}

// busy reports whether a new outgoing call would take the screen from a
// live session.
func (c *Coordinator) busy() bool {
	return (c.inv != nil && c.inv.Ringing()) || c.media != nil || c.graceFor != nil
}

func (c *Coordinator) startOutgoing(id domain.CallID, callee domain.Participant) {
	c.resetTerminal()
	inv := invite.NewOutgoing(id, c.self, callee, c.clock.Now(), c.cfg.RingTimeout)
	c.inv = inv
	c.last = inv
	c.remember(id)
	c.setView(ViewOutgoing)
	c.log.Info().Str("call_id", id.String()).Str("callee", string(callee.ID)).Msg("ringing")

	c.ringTimer = c.clock.AfterFunc(c.cfg.RingTimeout, func() {
		c.loop.Post(func() { c.onDeadline(id) })
	})
	c.send(inv.Event(domain.EventInvite, c.clock.Now()))
	c.lookup(inv)
}

func (c *Coordinator) onDeadline(id domain.CallID) {
	if c.inv == nil || c.inv.CallID() != id || !c.inv.Ringing() {
		c.stale("deadline", id, "invitation no longer ringing")
		return
	}
	c.ringTimer = nil
	if err := c.fire(c.inv, invite.Deadline); err != nil {
		c.log.Warn().Err(err).Msg("deadline")
	}
	c.publish()
}

func (c *Coordinator) onInvite(ev domain.Event) {
	if _, err := domain.ParseCallID(ev.CallID.String()); err != nil {
		c.stale(string(ev.Type), ev.CallID, err.Error())
		return
	}
	caller := ev.Caller()
	if caller.ID == "" || caller.ID == c.self.ID {
		c.stale(string(ev.Type), ev.CallID, "bad caller")
		return
	}
	if c.seen(ev.CallID) {
		c.stale(string(ev.Type), ev.CallID, "duplicate invite")
		return
	}

	ringing := c.inv != nil && c.inv.Ringing()
	if ringing || c.media != nil {
		busy := app.Busy{Ringing: ringing, InCall: c.media != nil}
		if ringing {
			busy.CallID = c.inv.CallID()
		} else {
			busy.CallID = c.media.CallID()
		}
		action := c.policy.OnInviteWhileBusy(busy, ev)
		c.log.Info().Str("call_id", ev.CallID.String()).Str("busy_with", busy.CallID.String()).Stringer("action", action).Msg("invite while busy")
		if action == app.AutoDecline {
			c.remember(ev.CallID)
			c.send(domain.Event{Type: domain.EventDecline, CallID: ev.CallID, From: c.self.ID, To: caller.ID, SentAt: c.clock.Now()})
			return
		}
		if ringing {
			c.replaceRinging()
		}
	}

	c.resetTerminal()
	inv := invite.NewIncoming(ev, c.self, c.clock.Now())
	c.inv = inv
	c.remember(ev.CallID)
	c.setView(ViewIncoming)
	c.log.Info().Str("call_id", ev.CallID.String()).Str("caller", string(caller.ID)).Msg("incoming call")
	c.lookup(inv)
}

// replaceRinging drops the ringing invitation for a newer one. Our own
// outgoing ring is cancelled so the callee stops ringing.
func (c *Coordinator) replaceRinging() {
	old := c.inv
	c.stopRingTimer()
	if old.Role() == domain.RoleCaller {
		c.send(old.Event(domain.EventCancel, c.clock.Now()))
	}
	c.metrics.Transitions.WithLabelValues("replaced", string(old.Phase())).Inc()
	c.log.Info().Str("call_id", old.CallID().String()).Msg("ringing invitation replaced")
	c.inv = nil
}

func (c *Coordinator) onInvitationEvent(ev domain.Event) {
	inv := c.inv
	if inv == nil || inv.CallID() != ev.CallID {
		c.stale(string(ev.Type), ev.CallID, "no matching invitation")
		return
	}
	if ev.From != "" && ev.From != inv.Counterpart().ID {
		c.stale(string(ev.Type), ev.CallID, "not from counterpart")
		return
	}
	t, ok := invite.ForEvent(inv.Role(), ev.Type)
	if !ok {
		c.stale(string(ev.Type), ev.CallID, "not valid for role")
		return
	}
	if t == invite.RemoteAccept && inv.Ringing() {
		c.resetTerminal()
		c.last = inv
	}
	err := c.fire(inv, t)
	switch {
	case errors.Is(err, domain.ErrStaleEvent):
		c.endLateAnswer(inv, ev)
	case err != nil:
		c.log.Warn().Err(err).Str("call_id", ev.CallID.String()).Msg("transition")
	}
}

// endLateAnswer tells a callee whose answer lost the race against our
// deadline that the call is over, so it does not wait alone in the room.
func (c *Coordinator) endLateAnswer(inv *invite.Session, ev domain.Event) {
	if inv.Role() != domain.RoleCaller || inv.Phase() != domain.PhaseTimedOut {
		return
	}
	if ev.Type != domain.EventAccept && ev.Type != domain.EventStartSession {
		return
	}
	c.log.Info().Str("call_id", ev.CallID.String()).Str("type", string(ev.Type)).Msg("answer after deadline, ending call")
	c.send(domain.Event{
		Type:   domain.EventEndCall,
		CallID: inv.CallID(),
		From:   c.self.ID,
		To:     inv.Counterpart().ID,
		SentAt: c.clock.Now(),
	})
}

// fire applies t and performs its effects. A stale trigger changes nothing.
func (c *Coordinator) fire(inv *invite.Session, t invite.Trigger) error {
	tr, err := inv.Apply(c.runCtx, t, c.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrStaleEvent) {
			c.stale(string(t), inv.CallID(), "invitation already "+string(inv.Phase()))
		}
		return err
	}
	c.stopRingTimer()
	c.metrics.Transitions.WithLabelValues(string(t), string(tr.To)).Inc()
	c.log.Info().Str("call_id", inv.CallID().String()).Str("trigger", string(t)).Str("phase", string(tr.To)).Msg("invitation")

	for _, typ := range tr.Effects.Emits() {
		c.send(inv.Event(typ, c.clock.Now()))
	}
	switch {
	case tr.Effects.Has(invite.HandOff):
		c.startMedia(inv)
	case tr.Effects.Has(invite.ShowDeclined):
		c.terminalView(inv, ViewDeclined)
	case tr.Effects.Has(invite.ShowNoResponse):
		c.terminalView(inv, ViewNoResponse)
	case tr.Effects.Has(invite.CloseUI):
		c.settle()
	}
	return nil
}

// terminalView shows v unless a call is still running underneath, in which
// case the resolved invitation leaves quietly. A shown view makes inv the
// attempt "call again" redials, whichever side rang.
func (c *Coordinator) terminalView(inv *invite.Session, v View) {
	if c.media != nil {
		c.settle()
		return
	}
	c.last = inv
	c.setView(v)
}

// lookup resolves a richer counterpart snapshot off the loop. The call never
// waits for it.
func (c *Coordinator) lookup(inv *invite.Session) {
	if c.directory == nil {
		return
	}
	ctx, id := c.runCtx, inv.Counterpart().ID
	go func() {
		p, err := c.directory.Lookup(ctx, id)
		if err != nil {
			c.log.Debug().Err(err).Str("peer", string(id)).Msg("directory lookup failed")
			return
		}
		c.loop.Post(func() {
			if !inv.UpdateCounterpart(p) {
				return
			}
			if c.media != nil && c.peer.ID == p.ID {
				c.peer = p
			}
			c.publish()
		})
	}()
}
