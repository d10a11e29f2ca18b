package signal

import (
	"github.com/dkeye/duet/internal/domain"
)

func (ctl *SignalWSController) handleWhoAmI(
	who domain.Participant,
	conn *WsSignalConn,
) {
	resp := struct {
		Type  string             `json:"type"`
		User  domain.Participant `json:"user"`
		Rooms []domain.CallID    `json:"rooms,omitempty"`
	}{
		Type: "whoami",
		User: who,
	}
	for _, info := range ctl.Relay.Rooms.List() {
		if info.Has(who.ID) {
			resp.Rooms = append(resp.Rooms, info.CallID)
		}
	}
	ctl.sendJSON(conn, resp)
}
