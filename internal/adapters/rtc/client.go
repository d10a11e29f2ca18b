package rtc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// Client implements core.MediaTransport against the relay room API.
type Client struct {
	base   string
	token  string
	self   domain.UserID
	http   *http.Client
	webrtc webrtc.Configuration
	log    zerolog.Logger

	mu     sync.Mutex
	conn   *Connection
	tracks []core.MediaTrack
}

var _ core.MediaTransport = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithWebRTCConfig(cfg webrtc.Configuration) Option {
	return func(c *Client) { c.webrtc = cfg }
}

// NewClient talks to the relay at base (http://host:port) as self.
func NewClient(base, token string, self domain.UserID, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		self:   self,
		http:   &http.Client{Timeout: 10 * time.Second},
		webrtc: DefaultWebRTCConfig(),
		log:    log.With().Str("module", "rtc").Str("user", string(self)).Logger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type apiError struct {
	Error string          `json:"error"`
	Room  domain.RoomInfo `json:"room"`
}

// do sends body as JSON and decodes a 2xx response into out. Other
// responses come back as status and decoded error body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, apiError, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, apiError{}, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, apiError{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apiError{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		return resp.StatusCode, ae, nil
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, apiError{}, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, apiError{}, nil
}

func roomPath(id domain.CallID, suffix string) string {
	return "/api/rooms/" + url.PathEscape(id.String()) + suffix
}

func unexpected(op string, status int, ae apiError) error {
	return fmt.Errorf("%s: unexpected status %d %s", op, status, ae.Error)
}

func (c *Client) GetRoom(ctx context.Context, id domain.CallID) (domain.RoomInfo, error) {
	var info domain.RoomInfo
	status, ae, err := c.do(ctx, http.MethodGet, roomPath(id, ""), nil, &info)
	switch {
	case err != nil:
		return domain.RoomInfo{}, err
	case status == http.StatusOK:
		return info, nil
	case status == http.StatusNotFound:
		return domain.RoomInfo{}, domain.ErrRoomNotFound
	}
	return domain.RoomInfo{}, unexpected("get room", status, ae)
}

func (c *Client) CreateRoom(ctx context.Context, id domain.CallID, maxParticipants int) (domain.RoomInfo, error) {
	req := struct {
		CallID          domain.CallID `json:"call_id"`
		MaxParticipants int           `json:"max_participants"`
	}{id, maxParticipants}
	var info domain.RoomInfo
	status, ae, err := c.do(ctx, http.MethodPost, "/api/rooms", req, &info)
	switch {
	case err != nil:
		return domain.RoomInfo{}, err
	case status == http.StatusCreated || status == http.StatusOK:
		return info, nil
	case status == http.StatusConflict:
		return domain.RoomInfo{}, domain.ErrRoomExists
	}
	return domain.RoomInfo{}, unexpected("create room", status, ae)
}

// JoinRoom joins the room and publishes fresh audio and video capture on
// the client connection.
func (c *Client) JoinRoom(ctx context.Context, id domain.CallID) (core.RoomHandle, error) {
	var info domain.RoomInfo
	status, ae, err := c.do(ctx, http.MethodPost, roomPath(id, "/join"), nil, &info)
	switch {
	case err != nil:
		return nil, err
	case status == http.StatusConflict && ae.Error == "call_full":
		return nil, domain.ErrCallFull
	case status == http.StatusNotFound:
		return nil, domain.ErrRoomNotFound
	case status != http.StatusOK:
		return nil, unexpected("join room", status, ae)
	}

	tracks, err := c.capture(id)
	if err != nil {
		h := &Handle{id: id}
		if lerr := c.LeaveRoom(ctx, h); lerr != nil {
			c.log.Warn().Err(lerr).Str("call_id", id.String()).Msg("leave after failed capture")
		}
		return nil, fmt.Errorf("capture: %w", err)
	}
	c.log.Info().Str("call_id", id.String()).Int("participants", len(info.Participants)).Msg("joined room")
	return &Handle{id: id, participants: info.Participants, tracks: tracks}, nil
}

func (c *Client) capture(id domain.CallID) ([]core.MediaTrack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.Closed() {
		conn, err := NewConnection(c.webrtc, c.self)
		if err != nil {
			return nil, err
		}
		c.conn = conn
	}
	var out []core.MediaTrack
	for _, kind := range []core.TrackKind{core.TrackAudio, core.TrackVideo} {
		t, err := NewLocalTrack(kind, id.String())
		if err == nil {
			err = c.conn.AddTrack(t)
		}
		if err != nil {
			for _, started := range out {
				_ = started.Stop()
			}
			return nil, err
		}
		out = append(out, t)
	}
	c.tracks = append(c.tracks, out...)
	return out, nil
}

func (c *Client) NewHandle(id domain.CallID) core.RoomHandle {
	return &Handle{id: id}
}

// LeaveRoom leaves the room. Capture that is still running stays with the
// client; once none is left the peer connection is closed too.
func (c *Client) LeaveRoom(ctx context.Context, h core.RoomHandle) error {
	status, ae, err := c.do(ctx, http.MethodPost, roomPath(h.CallID(), "/leave"), nil, nil)
	c.release()
	switch {
	case err != nil:
		return err
	case status == http.StatusNoContent || status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return domain.ErrRoomNotFound
	}
	return unexpected("leave room", status, ae)
}

func (c *Client) release() {
	c.mu.Lock()
	c.tracks = slices.DeleteFunc(c.tracks, func(t core.MediaTrack) bool { return !t.Active() })
	var conn *Connection
	if len(c.tracks) == 0 {
		conn, c.conn = c.conn, nil
	}
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			c.log.Warn().Err(err).Msg("close idle connection")
		}
	}
}

// DisconnectClient releases every room held by this identity on the relay,
// closes the peer connection and stops the client's tracks.
func (c *Client) DisconnectClient(ctx context.Context) error {
	var errs error
	status, ae, err := c.do(ctx, http.MethodPost, "/api/disconnect", nil, nil)
	if err == nil && status >= 300 {
		err = unexpected("disconnect", status, ae)
	}
	errs = multierr.Append(errs, err)

	c.mu.Lock()
	conn, tracks := c.conn, c.tracks
	c.conn, c.tracks = nil, nil
	c.mu.Unlock()

	for _, t := range tracks {
		errs = multierr.Append(errs, t.Stop())
	}
	if conn != nil {
		errs = multierr.Append(errs, conn.Close())
	}
	return errs
}

func (c *Client) LocalMediaTracks() []core.MediaTrack {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tracks)
}

// Handle is the client's view of one room as of the join.
type Handle struct {
	id           domain.CallID
	participants []domain.UserID
	tracks       []core.MediaTrack
}

func (h *Handle) CallID() domain.CallID          { return h.id }
func (h *Handle) Participants() []domain.UserID  { return slices.Clone(h.participants) }
func (h *Handle) LocalTracks() []core.MediaTrack { return slices.Clone(h.tracks) }
