package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/duet/internal/domain"
	"github.com/gorilla/websocket"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.log.Warn().Err(err).Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				c.log.Debug().Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				c.log.Error().Err(err).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Error().Err(err).Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, who domain.Participant, c *WsSignalConn) {
	defer func() {
		c.log.Info().Msg("readPump closing")
		c.Close()
	}()

	if ctl.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.ReadLimit)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
		ctl.handleSignal(who, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(who domain.Participant, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Error().Err(err).Msg("bad json")
		ctl.sendError(c, "", "bad_payload")
		return
	}

	switch env.Type {
	case "ping":
		ctl.handlePing(c)
	case "whoami":
		ctl.handleWhoAmI(who, c)
	default:
		ctl.handleEvent(who, c, data)
	}
}

func (ctl *SignalWSController) handleEvent(who domain.Participant, c *WsSignalConn, data []byte) {
	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.log.Error().Err(err).Msg("bad event payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	err := ctl.Relay.Route(who.ID, ev)
	if err == nil {
		return
	}
	c.log.Debug().Err(err).Str("type", string(ev.Type)).Str("call_id", ev.CallID.String()).Msg("event not relayed")
	ctl.sendError(c, ev.CallID, errorCode(err))
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Error().Err(err).Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		c.log.Debug().Err(err).Msg("sendJSON")
	}
}
