// Package media drives one call's room on the media transport: join or
// create with the two-party cap, expose connection state, and release every
// local track when the call ends.
package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/dkeye/duet/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrSessionClosed is returned by Join when the session was cleaned up
// while the join was in flight.
var ErrSessionClosed = errors.New("media session closed")

type Config struct {
	MaxParticipants int
	JoinGrace       time.Duration
}

type Session struct {
	id        domain.CallID
	local     domain.UserID
	transport core.MediaTransport
	clock     clock.Clock
	cfg       Config
	metrics   *metrics.Calls
	log       zerolog.Logger

	mu              sync.Mutex
	state           domain.RoomState
	handle          core.RoomHandle
	participants    []domain.UserID
	connectingSince time.Time
	err             error
	joining         bool
	closed          bool
	report          *CleanupReport
}

// New returns a session in Connecting. clk and m may be nil.
func New(id domain.CallID, local domain.UserID, transport core.MediaTransport, cfg Config, clk clock.Clock, m *metrics.Calls) *Session {
	if cfg.MaxParticipants <= 0 || cfg.MaxParticipants > domain.MaxParticipants {
		cfg.MaxParticipants = domain.MaxParticipants
	}
	if clk == nil {
		clk = clock.New()
	}
	if m == nil {
		m = metrics.NewCalls(nil)
	}
	return &Session{
		id:              id,
		local:           local,
		transport:       transport,
		clock:           clk,
		cfg:             cfg,
		metrics:         m,
		log:             log.With().Str("module", "media").Str("call_id", id.String()).Logger(),
		state:           domain.RoomConnecting,
		connectingSince: clk.Now(),
	}
}

func (s *Session) CallID() domain.CallID { return s.id }

func (s *Session) State() domain.RoomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Join runs the join protocol once. It never retries.
func (s *Session) Join(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.joining || s.state != domain.RoomConnecting {
		s.mu.Unlock()
		return nil
	}
	s.joining = true
	s.connectingSince = s.clock.Now()
	s.mu.Unlock()

	info, err := s.transport.GetRoom(ctx, s.id)
	switch {
	case err == nil:
		if info.Has(s.local) {
			s.log.Info().Msg("already in room, skipping join")
			return s.activate(ctx, nil, info.Participants, "already_joined")
		}
		if info.Full() {
			return s.fail(domain.ErrCallFull)
		}
	case errors.Is(err, domain.ErrRoomNotFound):
		if _, err := s.transport.CreateRoom(ctx, s.id, s.cfg.MaxParticipants); err != nil && !errors.Is(err, domain.ErrRoomExists) {
			return s.fail(fmt.Errorf("%w: create room: %w", domain.ErrJoinFailure, err))
		}
	default:
		return s.fail(fmt.Errorf("%w: get room: %w", domain.ErrJoinFailure, err))
	}

	h, err := s.transport.JoinRoom(ctx, s.id)
	if err != nil {
		if errors.Is(err, domain.ErrCallFull) {
			return s.fail(domain.ErrCallFull)
		}
		return s.fail(fmt.Errorf("%w: join room: %w", domain.ErrJoinFailure, err))
	}
	return s.activate(ctx, h, h.Participants(), "joined")
}

func (s *Session) activate(ctx context.Context, h core.RoomHandle, participants []domain.UserID, result string) error {
	s.mu.Lock()
	s.joining = false
	if s.closed {
		s.mu.Unlock()
		s.log.Warn().Msg("join completed after close, releasing room")
		if h != nil {
			// tracks first, so the transport can drop capture nothing holds
			stopTracks(h.LocalTracks())
			if err := s.transport.LeaveRoom(ctx, h); err != nil {
				s.log.Warn().Err(err).Msg("late leave failed")
			}
		}
		s.metrics.JoinResults.WithLabelValues("closed").Inc()
		return ErrSessionClosed
	}
	s.handle = h
	s.participants = append([]domain.UserID(nil), participants...)
	s.state = domain.RoomActive
	s.mu.Unlock()

	s.metrics.JoinResults.WithLabelValues(result).Inc()
	s.log.Info().Int("participants", len(participants)).Msg("room active")
	return nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.joining = false
	if s.closed {
		s.mu.Unlock()
		s.metrics.JoinResults.WithLabelValues("closed").Inc()
		return ErrSessionClosed
	}
	s.state = domain.RoomFailed
	s.err = err
	s.mu.Unlock()

	result := "join_failure"
	if errors.Is(err, domain.ErrCallFull) {
		result = "call_full"
	}
	s.metrics.JoinResults.WithLabelValues(result).Inc()
	s.log.Warn().Err(err).Msg("join failed")
	return err
}

// Err is the join error regardless of the grace window.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// VisibleError is the error the user should see now. CallFull is shown at
// once; a join failure only after the grace window since Connecting.
func (s *Session) VisibleError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil || errors.Is(s.err, domain.ErrCallFull) {
		return s.err
	}
	if s.clock.Since(s.connectingSince) < s.cfg.JoinGrace {
		return nil
	}
	return s.err
}

// GraceRemaining is how long a join failure stays hidden.
func (s *Session) GraceRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(s.cfg.JoinGrace-s.clock.Since(s.connectingSince), 0)
}

type Snapshot struct {
	CallID           domain.CallID
	Local            domain.UserID
	Remote           domain.UserID
	State            domain.RoomState
	Participants     []domain.UserID
	ParticipantCount int
	ActiveTracks     int
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	participants := s.participants
	if s.handle != nil {
		participants = s.handle.Participants()
	}
	snap := Snapshot{
		CallID:       s.id,
		Local:        s.local,
		State:        s.state,
		Participants: append([]domain.UserID(nil), participants...),
	}
	var handleTracks []core.MediaTrack
	if s.handle != nil {
		handleTracks = s.handle.LocalTracks()
	}
	s.mu.Unlock()

	info := domain.RoomInfo{CallID: s.id, MaxParticipants: domain.MaxParticipants, Participants: snap.Participants}
	snap.Remote, _ = info.Other(s.local)
	snap.ParticipantCount = min(len(snap.Participants), domain.MaxParticipants)
	snap.ActiveTracks = core.ActiveTracks(handleTracks, s.transport.LocalMediaTracks())
	return snap
}
