// Package rtc is the client's media transport: the relay room API for
// rendezvous plus a pion peer connection carrying the local capture tracks.
package rtc

import (
	"errors"
	"sync"

	"github.com/dkeye/duet/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// Connection is the client identity used for media.
type Connection struct {
	pc  *webrtc.PeerConnection
	log zerolog.Logger

	mu     sync.Mutex
	closed bool
}

func NewConnection(cfg webrtc.Configuration, user domain.UserID) (*Connection, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}
	ir := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, ir); err != nil {
		return nil, err
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(ir))

	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	c := &Connection{
		pc:  pc,
		log: log.With().Str("module", "webrtc").Str("user", string(user)).Logger(),
	}
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		c.log.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
	})
	return c, nil
}

func (c *Connection) AddTrack(t *LocalTrack) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return webrtc.ErrConnectionClosed
	}
	sender, err := c.pc.AddTrack(t.Track)
	if err != nil {
		return err
	}
	t.attach(c, sender)
	return nil
}

func (c *Connection) removeSender(s *webrtc.RTPSender) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.pc.RemoveTrack(s)
}

func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.pc.Close(); err != nil && !errors.Is(err, webrtc.ErrConnectionClosed) {
		c.log.Error().Err(err).Msg("close error")
		return err
	}
	c.log.Info().Msg("closed")
	return nil
}
