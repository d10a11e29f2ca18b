// Package orch holds the call session coordinator: the per-client owner of
// at most one invitation and one media session. Every state change happens
// on its event loop.
package orch

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/duet/internal/app"
	"github.com/dkeye/duet/internal/app/eventloop"
	"github.com/dkeye/duet/internal/app/invite"
	"github.com/dkeye/duet/internal/app/media"
	"github.com/dkeye/duet/internal/config"
	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/dkeye/duet/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrBusy           = errors.New("another call is in progress")
	ErrNoInvitation   = errors.New("no ringing invitation")
	ErrNothingToRetry = errors.New("no ended call to call again")
)

type View string

const (
	ViewIdle       View = "idle"
	ViewOutgoing   View = "outgoing"
	ViewIncoming   View = "incoming"
	ViewConnecting View = "connecting"
	ViewInCall     View = "in_call"
	ViewDeclined   View = "declined"
	ViewNoResponse View = "no_response"
	ViewCallEnded  View = "call_ended"
	ViewCallFailed View = "call_failed"
)

// Terminal views offer "call again" and "close".
func (v View) Terminal() bool {
	switch v {
	case ViewDeclined, ViewNoResponse, ViewCallEnded, ViewCallFailed:
		return true
	}
	return false
}

// Snapshot is the UI-facing state.
type Snapshot struct {
	View        View
	CallID      domain.CallID
	Role        domain.Role
	Phase       domain.Phase
	Counterpart domain.Participant
	Deadline    time.Time
	Media       *media.Snapshot
	Err         error
}

type Deps struct {
	Self      domain.Participant
	Signal    core.SignalingChannel
	Transport core.MediaTransport
	// Directory is optional.
	Directory core.Directory
	Policy    app.InvitePolicy
	Clock     clock.Clock
	Metrics   *metrics.Calls
}

type Coordinator struct {
	self      domain.Participant
	signal    core.SignalingChannel
	transport core.MediaTransport
	directory core.Directory
	policy    app.InvitePolicy
	clock     clock.Clock
	cfg       config.CallConfig
	metrics   *metrics.Calls
	loop      *eventloop.Loop
	log       zerolog.Logger

	runCtx context.Context

	// owned by the loop
	view       View
	inv        *invite.Session
	ringTimer  *clock.Timer
	media      *media.Session
	peer       domain.Participant
	graceFor   *media.Session
	graceTimer *clock.Timer
	failure    error
	last       *invite.Session
	recent     []domain.CallID

	mu             sync.Mutex
	published      Snapshot
	publishedMedia *media.Session
	listeners      []func(Snapshot)
}

const recentCalls = 16

func New(cfg config.CallConfig, deps Deps) *Coordinator {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCalls(nil)
	}
	if deps.Policy == nil {
		deps.Policy = app.ReplacePolicy{}
	}
	if cfg.RingTimeout <= 0 {
		cfg.RingTimeout = 15 * time.Second
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = 5 * time.Second
	}
	if cfg.MaxParticipants <= 0 {
		cfg.MaxParticipants = domain.MaxParticipants
	}
	return &Coordinator{
		self:      deps.Self,
		signal:    deps.Signal,
		transport: deps.Transport,
		directory: deps.Directory,
		policy:    deps.Policy,
		clock:     deps.Clock,
		cfg:       cfg,
		metrics:   deps.Metrics,
		loop:      eventloop.New(),
		log:       log.With().Str("module", "orch").Str("user", string(deps.Self.ID)).Logger(),
		runCtx:    context.Background(),
		view:      ViewIdle,
		published: Snapshot{View: ViewIdle},
	}
}

// OnChange registers fn to receive every new snapshot. fn runs on the loop
// and must not call back into the coordinator synchronously.
func (c *Coordinator) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns the last published state with the media part read live.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	s, m := c.published, c.publishedMedia
	c.mu.Unlock()
	if m != nil {
		ms := m.Snapshot()
		s.Media = &ms
	}
	return s
}

// Run subscribes to signaling and processes events until ctx is done. On
// return any live media session has been cleaned up.
func (c *Coordinator) Run(ctx context.Context) error {
	c.runCtx = ctx
	unsubscribe := c.signal.Subscribe(c.onSignal)
	defer unsubscribe()

	c.log.Info().Msg("coordinator started")
	c.loop.Run(ctx)

	// the loop has stopped; nothing else touches the state now
	c.stopRingTimer()
	c.stopGraceTimer()
	if c.media != nil {
		c.endMedia()
		c.settle()
		c.publish()
	}
	c.log.Info().Msg("coordinator stopped")
	return nil
}

func (c *Coordinator) onSignal(ev domain.Event) {
	if !c.loop.Post(func() { c.handleEvent(ev) }) {
		c.log.Debug().Str("type", string(ev.Type)).Msg("loop stopped, event dropped")
	}
}

// do runs fn on the loop and returns its error.
func (c *Coordinator) do(ctx context.Context, fn func() error) error {
	var err error
	if cerr := c.loop.Call(ctx, func() { err = fn() }); cerr != nil {
		return cerr
	}
	return err
}

func (c *Coordinator) setView(v View) {
	if c.view != v {
		c.log.Debug().Str("from", string(c.view)).Str("to", string(v)).Msg("view")
	}
	c.view = v
}

// settle picks the view once the invitation no longer needs the screen.
func (c *Coordinator) settle() {
	switch {
	case c.media == nil:
		c.setView(ViewIdle)
	case c.media.State() == domain.RoomActive:
		c.setView(ViewInCall)
	default:
		c.setView(ViewConnecting)
	}
}

func (c *Coordinator) snapshot() Snapshot {
	s := Snapshot{View: c.view, Err: c.failure}
	if c.view != ViewCallFailed {
		s.Err = nil
	}
	switch {
	case c.inv != nil && (c.view == ViewOutgoing || c.view == ViewIncoming || c.view == ViewDeclined || c.view == ViewNoResponse):
		s.CallID = c.inv.CallID()
		s.Role = c.inv.Role()
		s.Phase = c.inv.Phase()
		s.Counterpart = c.inv.Counterpart()
		s.Deadline = c.inv.Deadline()
	case c.media != nil:
		s.CallID = c.media.CallID()
		s.Counterpart = c.peer
		if c.last != nil && c.last.CallID() == s.CallID {
			s.Role = c.last.Role()
			s.Phase = c.last.Phase()
		}
	case c.last != nil:
		s.CallID = c.last.CallID()
		s.Role = c.last.Role()
		s.Phase = c.last.Phase()
		s.Counterpart = c.last.Counterpart()
	}
	if c.media != nil {
		ms := c.media.Snapshot()
		s.Media = &ms
	}
	return s
}

func (c *Coordinator) publish() {
	snap := c.snapshot()
	c.mu.Lock()
	c.published = snap
	c.publishedMedia = c.media
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// send is fire-and-forget. Local state never waits on delivery.
func (c *Coordinator) send(ev domain.Event) {
	if err := c.signal.Send(c.runCtx, ev); err != nil {
		c.metrics.SignalingDrops.WithLabelValues(string(ev.Type)).Inc()
		c.log.Warn().Err(err).Str("type", string(ev.Type)).Str("call_id", ev.CallID.String()).Msg("signaling send dropped")
	}
}

func (c *Coordinator) stale(kind string, id domain.CallID, reason string) {
	c.metrics.StaleEvents.WithLabelValues(kind).Inc()
	c.log.Debug().Str("type", kind).Str("call_id", id.String()).Str("reason", reason).Msg("ignored")
}

func (c *Coordinator) remember(id domain.CallID) {
	c.recent = append(c.recent, id)
	if len(c.recent) > recentCalls {
		c.recent = c.recent[len(c.recent)-recentCalls:]
	}
}

func (c *Coordinator) seen(id domain.CallID) bool {
	return slices.Contains(c.recent, id)
}

// resetTerminal forgets a terminal view before a new call session starts.
func (c *Coordinator) resetTerminal() {
	c.stopGraceTimer()
	c.failure = nil
}

func (c *Coordinator) stopRingTimer() {
	if c.ringTimer != nil {
		c.ringTimer.Stop()
		c.ringTimer = nil
	}
}

func (c *Coordinator) stopGraceTimer() {
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	c.graceFor = nil
}

func (c *Coordinator) handleEvent(ev domain.Event) {
	if ev.To != "" && ev.To != c.self.ID {
		c.stale(string(ev.Type), ev.CallID, "not addressed to us")
		return
	}
	switch ev.Type {
	case domain.EventInvite:
		c.onInvite(ev)
	case domain.EventAccept, domain.EventDecline, domain.EventCancel, domain.EventTimeout, domain.EventStartSession:
		c.onInvitationEvent(ev)
	case domain.EventEndCall, domain.EventRemoteEnded:
		c.onRemoteEnded(ev)
	default:
		c.stale(string(ev.Type), ev.CallID, "unknown type")
		return
	}
	c.publish()
}
