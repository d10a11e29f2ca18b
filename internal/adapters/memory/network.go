// Package memory implements the signaling and media ports in process. It
// backs the loopback client and the coordinator tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/rs/zerolog/log"
)

type room struct {
	max     int
	members []domain.UserID
}

func (r *room) info(id domain.CallID) domain.RoomInfo {
	return domain.RoomInfo{CallID: id, MaxParticipants: r.max, Participants: slices.Clone(r.members)}
}

// Network is a shared set of rooms, the in-process stand-in for a media
// server.
type Network struct {
	mu    sync.Mutex
	rooms map[domain.CallID]*room
}

func NewNetwork() *Network {
	return &Network{rooms: make(map[domain.CallID]*room)}
}

// Seed creates a room holding members, bypassing the cap check.
func (n *Network) Seed(id domain.CallID, members ...domain.UserID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms[id] = &room{max: domain.MaxParticipants, members: slices.Clone(members)}
}

func (n *Network) Room(id domain.CallID) (domain.RoomInfo, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.rooms[id]
	if !ok {
		return domain.RoomInfo{}, false
	}
	return r.info(id), true
}

func (n *Network) get(id domain.CallID) (domain.RoomInfo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.rooms[id]
	if !ok {
		return domain.RoomInfo{}, domain.ErrRoomNotFound
	}
	return r.info(id), nil
}

func (n *Network) create(id domain.CallID, max int) (domain.RoomInfo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.rooms[id]; ok {
		return domain.RoomInfo{}, domain.ErrRoomExists
	}
	if max <= 0 || max > domain.MaxParticipants {
		max = domain.MaxParticipants
	}
	r := &room{max: max}
	n.rooms[id] = r
	return r.info(id), nil
}

func (n *Network) join(id domain.CallID, user domain.UserID) (domain.RoomInfo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.rooms[id]
	if !ok {
		return domain.RoomInfo{}, domain.ErrRoomNotFound
	}
	if slices.Contains(r.members, user) {
		return r.info(id), nil
	}
	if len(r.members) >= r.max {
		return domain.RoomInfo{}, domain.ErrCallFull
	}
	r.members = append(r.members, user)
	return r.info(id), nil
}

func (n *Network) leave(id domain.CallID, user domain.UserID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.rooms[id]
	if !ok {
		return
	}
	r.members = slices.DeleteFunc(r.members, func(m domain.UserID) bool { return m == user })
	if len(r.members) == 0 {
		delete(n.rooms, id)
	}
}

// Op names a transport operation for fault injection.
type Op string

const (
	OpGetRoom    Op = "get_room"
	OpCreateRoom Op = "create_room"
	OpJoinRoom   Op = "join_room"
	OpLeaveRoom  Op = "leave_room"
	OpDisconnect Op = "disconnect"
	OpStopTrack  Op = "stop_track"
)

// Transport is one user's media client on a Network.
type Transport struct {
	net  *Network
	user domain.UserID

	mu     sync.Mutex
	faults map[Op]error
	panics map[Op]bool
	gate   chan struct{}
	tracks []*Track
	opened []*Track
}

func (n *Network) Transport(user domain.UserID) *Transport {
	return &Transport{
		net:    n,
		user:   user,
		faults: make(map[Op]error),
		panics: make(map[Op]bool),
	}
}

// Fail makes op return err until cleared with a nil err.
func (t *Transport) Fail(op Op, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		delete(t.faults, op)
		return
	}
	t.faults[op] = err
}

// Panic makes op panic.
func (t *Transport) Panic(op Op) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.panics[op] = true
}

// HoldJoins blocks JoinRoom until the returned function is called.
func (t *Transport) HoldJoins() (release func()) {
	gate := make(chan struct{})
	t.mu.Lock()
	t.gate = gate
	t.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (t *Transport) check(op Op) error {
	t.mu.Lock()
	err, p := t.faults[op], t.panics[op]
	t.mu.Unlock()
	if p {
		panic(fmt.Sprintf("memory transport: %s", op))
	}
	return err
}

func (t *Transport) GetRoom(_ context.Context, id domain.CallID) (domain.RoomInfo, error) {
	if err := t.check(OpGetRoom); err != nil {
		return domain.RoomInfo{}, err
	}
	return t.net.get(id)
}

func (t *Transport) CreateRoom(_ context.Context, id domain.CallID, maxParticipants int) (domain.RoomInfo, error) {
	if err := t.check(OpCreateRoom); err != nil {
		return domain.RoomInfo{}, err
	}
	return t.net.create(id, maxParticipants)
}

func (t *Transport) JoinRoom(ctx context.Context, id domain.CallID) (core.RoomHandle, error) {
	t.mu.Lock()
	gate := t.gate
	t.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := t.check(OpJoinRoom); err != nil {
		return nil, err
	}
	if _, err := t.net.join(id, t.user); err != nil {
		return nil, err
	}
	tracks := t.capture()
	log.Debug().Str("module", "memory").Str("user", string(t.user)).Str("call_id", id.String()).Msg("joined")
	return t.newHandle(id, tracks), nil
}

func (t *Transport) NewHandle(id domain.CallID) core.RoomHandle {
	return t.newHandle(id, nil)
}

func (t *Transport) newHandle(id domain.CallID, tracks []*Track) *Handle {
	return &Handle{id: id, net: t.net, tracks: tracks}
}

// LeaveRoom leaves the room and forgets capture that is no longer running.
func (t *Transport) LeaveRoom(_ context.Context, h core.RoomHandle) error {
	t.mu.Lock()
	t.tracks = slices.DeleteFunc(t.tracks, func(tr *Track) bool { return !tr.Active() })
	t.mu.Unlock()
	if err := t.check(OpLeaveRoom); err != nil {
		return err
	}
	t.net.leave(h.CallID(), t.user)
	return nil
}

// DisconnectClient stops and forgets the client's capture.
func (t *Transport) DisconnectClient(context.Context) error {
	if err := t.check(OpDisconnect); err != nil {
		return err
	}
	t.mu.Lock()
	tracks := t.tracks
	t.tracks = nil
	t.mu.Unlock()
	for _, tr := range tracks {
		_ = tr.Stop()
	}
	return nil
}

func (t *Transport) LocalMediaTracks() []core.MediaTrack {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.MediaTrack, 0, len(t.tracks))
	for _, tr := range t.tracks {
		out = append(out, tr)
	}
	return out
}

// ActiveTracks counts the capture tracks this client ever opened that are
// still running, including ones no handle references any more.
func (t *Transport) ActiveTracks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, tr := range t.opened {
		if tr.Active() {
			n++
		}
	}
	return n
}

func (t *Transport) capture() []*Track {
	stopErr := t.check(OpStopTrack)
	tracks := []*Track{NewTrack(core.TrackAudio), NewTrack(core.TrackVideo)}
	for _, tr := range tracks {
		tr.stopErr = stopErr
	}
	t.mu.Lock()
	t.tracks = append(t.tracks, tracks...)
	t.opened = append(t.opened, tracks...)
	t.mu.Unlock()
	return tracks
}

type Handle struct {
	id     domain.CallID
	net    *Network
	tracks []*Track
}

func (h *Handle) CallID() domain.CallID { return h.id }

func (h *Handle) Participants() []domain.UserID {
	info, ok := h.net.Room(h.id)
	if !ok {
		return nil
	}
	return info.Participants
}

func (h *Handle) LocalTracks() []core.MediaTrack {
	out := make([]core.MediaTrack, 0, len(h.tracks))
	for _, tr := range h.tracks {
		out = append(out, tr)
	}
	return out
}
