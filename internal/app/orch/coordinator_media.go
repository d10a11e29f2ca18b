package orch

import (
	"context"
	"errors"

	"github.com/dkeye/duet/internal/app/invite"
	"github.com/dkeye/duet/internal/app/media"
	"github.com/dkeye/duet/internal/domain"
)

// Hangup closes the local side of the call and tells the peer.
func (c *Coordinator) Hangup(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.media == nil && c.graceFor == nil {
			return nil
		}
		// a failed join already told the peer
		c.stopGraceTimer()
		c.failure = nil
		if c.media != nil {
			c.send(domain.Event{Type: domain.EventEndCall, CallID: c.media.CallID(), From: c.self.ID, To: c.peer.ID, SentAt: c.clock.Now()})
			c.endMedia()
		}
		if c.view != ViewIncoming {
			c.settle()
		}
		c.publish()
		return nil
	})
}

func (c *Coordinator) startMedia(inv *invite.Session) {
	m := media.New(inv.CallID(), c.self.ID, c.transport, media.Config{
		MaxParticipants: c.cfg.MaxParticipants,
		JoinGrace:       c.cfg.JoinGrace,
	}, c.clock, c.metrics)
	c.media = m
	c.peer = inv.Counterpart()
	c.metrics.ActiveCalls.Inc()
	c.setView(ViewConnecting)

	ctx := c.runCtx
	go func() {
		err := m.Join(ctx)
		c.loop.Post(func() {
			c.onJoined(m, err)
			c.publish()
		})
	}()
}

func (c *Coordinator) onJoined(m *media.Session, err error) {
	if c.media != m {
		c.stale("join_result", m.CallID(), "media session replaced")
		return
	}
	switch {
	case err == nil:
		if c.view == ViewConnecting {
			c.setView(ViewInCall)
		}
		return
	case errors.Is(err, media.ErrSessionClosed):
		return
	}

	c.log.Warn().Err(err).Str("call_id", m.CallID().String()).Msg("media join failed")
	c.send(domain.Event{Type: domain.EventEndCall, CallID: m.CallID(), From: c.self.ID, To: c.peer.ID, SentAt: c.clock.Now()})
	remaining := m.GraceRemaining()
	c.endMedia()
	c.failure = err

	if errors.Is(err, domain.ErrCallFull) || remaining <= 0 {
		c.showFailure()
		return
	}
	c.graceFor = m
	c.setView(ViewConnecting)
	c.graceTimer = c.clock.AfterFunc(remaining, func() {
		c.loop.Post(func() {
			c.onGraceElapsed(m)
			c.publish()
		})
	})
}

func (c *Coordinator) onGraceElapsed(m *media.Session) {
	if c.graceFor != m {
		c.stale("grace", m.CallID(), "grace no longer pending")
		return
	}
	c.graceTimer = nil
	c.graceFor = nil
	c.showFailure()
}

func (c *Coordinator) showFailure() {
	if c.view == ViewIncoming {
		c.failure = nil
		return
	}
	c.setView(ViewCallFailed)
}

func (c *Coordinator) onRemoteEnded(ev domain.Event) {
	if c.media == nil || c.media.CallID() != ev.CallID {
		c.stale(string(ev.Type), ev.CallID, "no matching media session")
		return
	}
	c.log.Info().Str("call_id", ev.CallID.String()).Msg("remote ended the call")
	c.endMedia()
	if c.view != ViewIncoming {
		c.setView(ViewCallEnded)
	}
}

// endMedia runs the cleanup cascade on the loop, bounded by the cleanup
// timeout, and drops the session.
func (c *Coordinator) endMedia() {
	m := c.media
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CleanupTimeout)
	defer cancel()

	report := m.Cleanup(ctx)
	c.media = nil
	c.metrics.ActiveCalls.Dec()
	if report.RemainingTracks > 0 {
		c.log.Error().Str("call_id", m.CallID().String()).Int("tracks", report.RemainingTracks).Msg("local media still active")
	}
}
