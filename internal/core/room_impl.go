package core

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/duet/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
type roomImpl struct {
	id    domain.CallID
	limit int

	mu      sync.RWMutex
	members map[domain.UserID]*domain.Member
	order   []domain.UserID
}

// NewRoomService creates a room capped at maxParticipants, clamped to the
// two-party limit.
func NewRoomService(id domain.CallID, maxParticipants int) RoomService {
	if maxParticipants <= 0 || maxParticipants > domain.MaxParticipants {
		maxParticipants = domain.MaxParticipants
	}
	return &roomImpl{
		id:      id,
		limit:   maxParticipants,
		members: make(map[domain.UserID]*domain.Member),
	}
}

func (r *roomImpl) Info() domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.infoLocked()
}

func (r *roomImpl) infoLocked() domain.RoomInfo {
	return domain.RoomInfo{
		CallID:          r.id,
		MaxParticipants: r.limit,
		Participants:    slices.Clone(r.order),
	}
}

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) Join(user domain.UserID) (domain.RoomInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[user]; ok {
		return r.infoLocked(), nil
	}
	if len(r.members) >= r.limit {
		log.Info().Str("module", "core.room").Str("call_id", string(r.id)).Str("user", string(user)).Msg("join rejected: call full")
		return r.infoLocked(), domain.ErrCallFull
	}
	r.members[user] = domain.NewMember(user, time.Now())
	r.order = append(r.order, user)
	log.Info().Str("module", "core.room").Str("call_id", string(r.id)).Str("user", string(user)).Int("count", len(r.members)).Msg("member joined")
	return r.infoLocked(), nil
}

func (r *roomImpl) Leave(user domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[user]; !ok {
		return false
	}
	delete(r.members, user)
	r.order = slices.DeleteFunc(r.order, func(id domain.UserID) bool { return id == user })
	log.Info().Str("module", "core.room").Str("call_id", string(r.id)).Str("user", string(user)).Int("count", len(r.members)).Msg("member left")
	return true
}
