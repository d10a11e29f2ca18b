// Package signal is the relay's websocket endpoint: it authenticates one
// connection per user and hands inbound events to the relay.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/duet/internal/app"
	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

type SignalWSController struct {
	Relay      *app.Relay
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSignalWSController(relay *app.Relay, readLimit int64, pingPeriod time.Duration) *SignalWSController {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &SignalWSController{Relay: relay, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

// pongWait is how long the peer may stay silent before the read fails.
func (ctl *SignalWSController) pongWait() time.Duration {
	return ctl.PingPeriod * 10 / 9
}

type WsSignalConn struct {
	id   string
	conn *websocket.Conn
	send chan core.Frame
	log  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and serves who until the connection
// drops or ctx is done.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, who domain.Participant) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		id:   uuid.NewString(),
		conn: ws,
		send: make(chan core.Frame, sendBuffer),
	}
	conn.log = log.With().Str("module", "signal").Str("user", string(who.ID)).Str("conn", conn.id).Logger()
	conn.log.Info().Msg("new WS connection")

	sess := core.NewMemberSession(who, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Relay.Connect(sess, cancel)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go ctl.writePump(ctx, conn)
	go func() {
		defer func() {
			cancel()
			ctl.Relay.Disconnect(sess)
		}()
		ctl.readPump(ctx, who, conn)
	}()
}
