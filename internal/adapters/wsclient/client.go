// Package wsclient is the client's signaling channel to the relay websocket.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

var ErrBackpressure = errors.New("backpressure")

// Client implements core.SignalingChannel over one websocket connection.
type Client struct {
	url    string
	token  string
	dialer *websocket.Dialer
	log    zerolog.Logger

	send chan core.Frame

	ready     chan struct{}
	readyOnce sync.Once

	mu        sync.Mutex
	connected bool
	subs      map[int]func(domain.Event)
	nextSub   int
	onError   func(code string, id domain.CallID)
}

var _ core.SignalingChannel = (*Client)(nil)

func New(url, token string) *Client {
	return &Client{
		url:    url,
		token:  token,
		dialer: websocket.DefaultDialer,
		log:    log.With().Str("module", "wsclient").Logger(),
		send:   make(chan core.Frame, sendBuffer),
		ready:  make(chan struct{}),
		subs:   make(map[int]func(domain.Event)),
	}
}

// OnRelayError registers fn for error frames the relay sends back when an
// event could not be forwarded.
func (c *Client) OnRelayError(fn func(code string, id domain.CallID)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// Ready is closed once the first connection to the relay is up.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) Send(ctx context.Context, ev domain.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSignalingUnavailable, err)
	}
	if !c.Connected() {
		return domain.ErrSignalingUnavailable
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case c.send <- b:
		return nil
	default:
		return fmt.Errorf("%w: %w", domain.ErrSignalingUnavailable, ErrBackpressure)
	}
}

func (c *Client) Subscribe(fn func(domain.Event)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Run connects to the relay and serves the connection until it drops or
// ctx is done. Events sent while disconnected are dropped; the channel
// does not reconnect on its own.
func (c *Client) Run(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)
	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSignalingUnavailable, err)
	}
	c.log.Info().Str("url", c.url).Msg("connected to relay")

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sctx.Done()
		_ = conn.Close()
	}()

	c.setConnected(true)
	defer c.setConnected(false)
	c.readyOnce.Do(func() { close(c.ready) })
	go c.writePump(sctx, cancel, conn)
	err = c.readPump(conn)
	if ctx.Err() != nil {
		return nil
	}
	c.log.Warn().Err(err).Msg("signaling connection lost")
	return err
}

func (c *Client) writePump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				c.log.Error().Err(err).Msg("writePump set deadline")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Error().Err(err).Msg("writePump write error")
				return
			}
		}
	}
}

func (c *Client) readPump(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var env struct {
		Type   string        `json:"type"`
		Error  string        `json:"error"`
		CallID domain.CallID `json:"call_id"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Error().Err(err).Msg("bad json from relay")
		return
	}

	if !domain.EventType(env.Type).Known() {
		switch env.Type {
		case "error":
			c.log.Info().Str("error", env.Error).Str("call_id", env.CallID.String()).Msg("relay rejected event")
			c.mu.Lock()
			fn := c.onError
			c.mu.Unlock()
			if fn != nil {
				fn(env.Error, env.CallID)
			}
		default:
			c.log.Debug().Str("type", env.Type).Msg("control frame")
		}
		return
	}

	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.log.Error().Err(err).Msg("bad event from relay")
		return
	}
	c.mu.Lock()
	subs := make([]func(domain.Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
