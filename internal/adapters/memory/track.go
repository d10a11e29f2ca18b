package memory

import (
	"sync/atomic"

	"github.com/dkeye/duet/internal/core"
	"github.com/google/uuid"
)

type trackState int32

const (
	trackCapturing trackState = iota
	trackStopped
)

// Track is a fake capture device. Stop may be told to fail, but the track
// still ends up stopped.
type Track struct {
	id      string
	kind    core.TrackKind
	state   atomic.Int32
	stopErr error
}

func NewTrack(kind core.TrackKind) *Track {
	return &Track{id: uuid.NewString(), kind: kind}
}

func (t *Track) ID() string           { return t.id }
func (t *Track) Kind() core.TrackKind { return t.kind }

func (t *Track) Active() bool {
	return trackState(t.state.Load()) == trackCapturing
}

func (t *Track) Stop() error {
	t.state.Store(int32(trackStopped))
	return t.stopErr
}
