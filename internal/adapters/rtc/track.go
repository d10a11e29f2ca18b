package rtc

import (
	"sync"
	"sync/atomic"

	"github.com/dkeye/duet/internal/core"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// LocalTrack is one capture track published on the client connection.
type LocalTrack struct {
	Track *webrtc.TrackLocalStaticSample
	kind  core.TrackKind

	stopped atomic.Bool

	mu     sync.Mutex
	conn   *Connection
	sender *webrtc.RTPSender
}

var _ core.MediaTrack = (*LocalTrack)(nil)

func codecFor(kind core.TrackKind) webrtc.RTPCodecCapability {
	if kind == core.TrackVideo {
		return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
	}
	return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}
}

func NewLocalTrack(kind core.TrackKind, streamID string) (*LocalTrack, error) {
	t, err := webrtc.NewTrackLocalStaticSample(codecFor(kind), string(kind)+"-"+uuid.NewString(), streamID)
	if err != nil {
		return nil, err
	}
	return &LocalTrack{Track: t, kind: kind}, nil
}

func (t *LocalTrack) attach(c *Connection, s *webrtc.RTPSender) {
	t.mu.Lock()
	t.conn, t.sender = c, s
	t.mu.Unlock()
}

func (t *LocalTrack) ID() string           { return t.Track.ID() }
func (t *LocalTrack) Kind() core.TrackKind { return t.kind }
func (t *LocalTrack) Active() bool         { return !t.stopped.Load() }

// Stop unpublishes the track. It is inactive afterwards even when removing
// the sender fails.
func (t *LocalTrack) Stop() error {
	if t.stopped.Swap(true) {
		return nil
	}
	t.mu.Lock()
	conn, sender := t.conn, t.sender
	t.conn, t.sender = nil, nil
	t.mu.Unlock()
	if conn == nil || sender == nil {
		return nil
	}
	return conn.removeSender(sender)
}
