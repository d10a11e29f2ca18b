package app

import (
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/rs/zerolog/log"
)

type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.CallID]core.RoomService
}

func NewRoomManager() *RoomManagerImpl {
	return &RoomManagerImpl{rooms: make(map[domain.CallID]core.RoomService)}
}

var _ core.RoomManager = (*RoomManagerImpl)(nil)

func (f *RoomManagerImpl) Get(id domain.CallID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) Create(id domain.CallID, maxParticipants int) (core.RoomService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; ok {
		return nil, domain.ErrRoomExists
	}
	room := core.NewRoomService(id, maxParticipants)
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("call_id", id.String()).Msg("room created")
	return room, nil
}

func (f *RoomManagerImpl) List() []domain.RoomInfo {
	f.mu.RLock()
	out := make([]domain.RoomInfo, 0, len(f.rooms))
	for _, r := range f.rooms {
		out = append(out, r.Info())
	}
	f.mu.RUnlock()
	slices.SortFunc(out, func(a, b domain.RoomInfo) int {
		return strings.Compare(a.CallID.String(), b.CallID.String())
	})
	return out
}

func (f *RoomManagerImpl) StopRoom(id domain.CallID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; ok {
		delete(f.rooms, id)
		log.Info().Str("module", "app.rooms").Str("call_id", id.String()).Msg("room stopped")
	}
}

// Leave removes user from room id and stops the room once it is empty.
func (f *RoomManagerImpl) Leave(id domain.CallID, user domain.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return false, domain.ErrRoomNotFound
	}
	left := room.Leave(user)
	if room.MemberCount() == 0 {
		delete(f.rooms, id)
		log.Info().Str("module", "app.rooms").Str("call_id", id.String()).Msg("room empty, stopped")
	}
	return left, nil
}

func (f *RoomManagerImpl) RemoveUser(user domain.UserID) []domain.CallID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var affected []domain.CallID
	for id, room := range f.rooms {
		if !room.Leave(user) {
			continue
		}
		affected = append(affected, id)
		if room.MemberCount() == 0 {
			delete(f.rooms, id)
		}
	}
	return affected
}

func (f *RoomManagerImpl) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}
