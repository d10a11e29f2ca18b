package signal

import (
	"errors"
	"time"

	"github.com/dkeye/duet/internal/app"
	"github.com/dkeye/duet/internal/domain"
)

type pongFrame struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
}

type errorFrame struct {
	Type   string        `json:"type"`
	Error  string        `json:"error"`
	CallID domain.CallID `json:"call_id,omitempty"`
}

// handlePing answers with the relay clock, the same clock that stamps
// sent_at on relayed events.
func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, pongFrame{Type: "pong", Time: ctl.Relay.Now()})
}

func (ctl *SignalWSController) sendError(conn *WsSignalConn, id domain.CallID, code string) {
	ctl.sendJSON(conn, errorFrame{Type: "error", Error: code, CallID: id})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrNoRecipient):
		return "recipient_offline"
	case errors.Is(err, app.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, app.ErrSpoofedSender):
		return "forbidden"
	case errors.Is(err, app.ErrUnknownEvent):
		return "unknown_type"
	case errors.Is(err, domain.ErrSignalingUnavailable):
		return "recipient_unavailable"
	}
	return "internal"
}
