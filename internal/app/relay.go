package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/dkeye/duet/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownEvent  = errors.New("unknown event type")
	ErrSpoofedSender = errors.New("sender does not match connection")
	ErrNoRecipient   = errors.New("recipient not connected")
	ErrRateLimited   = errors.New("rate limited")
)

// Limiter admits invites per user.
type Limiter interface {
	Allow(user domain.UserID) bool
}

// Relay forwards signaling events between connected users and owns the
// room table used as the media rendezvous.
type Relay struct {
	Registry *Registry
	Rooms    *RoomManagerImpl
	Limiter  Limiter
	Metrics  *metrics.Relay
	Now      func() time.Time
}

func NewRelay(limiter Limiter, m *metrics.Relay) *Relay {
	if m == nil {
		m = metrics.NewRelay(nil)
	}
	return &Relay{
		Registry: NewRegistry(),
		Rooms:    NewRoomManager(),
		Limiter:  limiter,
		Metrics:  m,
		Now:      time.Now,
	}
}

// Route validates ev from the connected user and forwards it to ev.To as
// the recipient observes it.
func (r *Relay) Route(from domain.UserID, ev domain.Event) error {
	if !ev.Type.Known() || ev.Type == domain.EventRemoteEnded {
		return r.drop(ev, "unknown", fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type))
	}
	if ev.From == "" {
		ev.From = from
	}
	if ev.From != from {
		return r.drop(ev, "spoofed", ErrSpoofedSender)
	}
	if ev.Type == domain.EventInvite {
		if ev.CallerID != "" && ev.CallerID != from {
			return r.drop(ev, "spoofed", ErrSpoofedSender)
		}
		if r.Limiter != nil && !r.Limiter.Allow(from) {
			return r.drop(ev, "rate_limited", ErrRateLimited)
		}
	}
	if ev.SentAt.IsZero() {
		ev.SentAt = r.Now()
	}

	dst, ok := r.Registry.Get(ev.To)
	if !ok {
		return r.drop(ev, "offline", fmt.Errorf("%w: %s", ErrNoRecipient, ev.To))
	}
	frame, err := json.Marshal(ev.ForRecipient())
	if err != nil {
		return r.drop(ev, "encode", err)
	}
	if err := dst.Signal().TrySend(frame); err != nil {
		return r.drop(ev, "backpressure", fmt.Errorf("%w: %w", domain.ErrSignalingUnavailable, err))
	}
	r.Metrics.RelayedEvents.WithLabelValues(string(ev.Type)).Inc()
	log.Debug().Str("module", "app.relay").Str("type", string(ev.Type)).Str("call_id", ev.CallID.String()).
		Str("from", string(ev.From)).Str("to", string(ev.To)).Msg("relayed")
	return nil
}

func (r *Relay) drop(ev domain.Event, reason string, err error) error {
	r.Metrics.DroppedEvents.WithLabelValues(reason).Inc()
	log.Info().Str("module", "app.relay").Str("type", string(ev.Type)).Str("call_id", ev.CallID.String()).
		Str("to", string(ev.To)).Str("reason", reason).Msg("event dropped")
	return err
}

// Connect binds sess and counts the client.
func (r *Relay) Connect(sess core.MemberSession, cancel func()) {
	r.Registry.Bind(sess, cancel)
	r.Metrics.ConnectedClients.Set(float64(r.Registry.Len()))
}

// Disconnect unbinds sess. Room membership is kept: the media identity
// outlives a signaling reconnect and is released by DisconnectUser.
func (r *Relay) Disconnect(sess core.MemberSession) {
	r.Registry.Unbind(sess)
	r.Metrics.ConnectedClients.Set(float64(r.Registry.Len()))
}

func (r *Relay) CreateRoom(id domain.CallID, maxParticipants int) (domain.RoomInfo, error) {
	if _, err := domain.ParseCallID(id.String()); err != nil {
		return domain.RoomInfo{}, err
	}
	room, err := r.Rooms.Create(id, maxParticipants)
	if err != nil {
		return domain.RoomInfo{}, err
	}
	r.Metrics.Rooms.Set(float64(r.Rooms.Len()))
	return room.Info(), nil
}

func (r *Relay) JoinRoom(id domain.CallID, user domain.UserID) (domain.RoomInfo, error) {
	room, ok := r.Rooms.Get(id)
	if !ok {
		r.Metrics.RoomJoins.WithLabelValues("not_found").Inc()
		return domain.RoomInfo{}, domain.ErrRoomNotFound
	}
	info, err := room.Join(user)
	switch {
	case errors.Is(err, domain.ErrCallFull):
		r.Metrics.RoomJoins.WithLabelValues("call_full").Inc()
	case err != nil:
		r.Metrics.RoomJoins.WithLabelValues("error").Inc()
	default:
		r.Metrics.RoomJoins.WithLabelValues("ok").Inc()
	}
	return info, err
}

func (r *Relay) LeaveRoom(id domain.CallID, user domain.UserID) error {
	_, err := r.Rooms.Leave(id, user)
	r.Metrics.Rooms.Set(float64(r.Rooms.Len()))
	return err
}

// DisconnectUser releases every room the user is in.
func (r *Relay) DisconnectUser(user domain.UserID) []domain.CallID {
	ids := r.Rooms.RemoveUser(user)
	r.Metrics.Rooms.Set(float64(r.Rooms.Len()))
	if len(ids) > 0 {
		log.Info().Str("module", "app.relay").Str("user", string(user)).Int("rooms", len(ids)).Msg("user disconnected from rooms")
	}
	return ids
}
