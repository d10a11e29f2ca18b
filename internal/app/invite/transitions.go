package invite

import "github.com/dkeye/duet/internal/domain"

// Trigger is what moves a ringing invitation to a terminal phase.
type Trigger string

const (
	LocalAccept   Trigger = "local_accept"
	RemoteAccept  Trigger = "remote_accept"
	LocalDecline  Trigger = "local_decline"
	RemoteDecline Trigger = "remote_decline"
	LocalCancel   Trigger = "local_cancel"
	RemoteCancel  Trigger = "remote_cancel"
	Deadline      Trigger = "deadline"
	RemoteTimeout Trigger = "remote_timeout"
)

// Effect is a bit set of side effects the coordinator performs after a
// transition has been applied.
type Effect uint16

const (
	EmitAccept Effect = 1 << iota
	EmitStartSession
	EmitDecline
	EmitCancel
	EmitTimeout
	HandOff
	CloseUI
	ShowDeclined
	ShowNoResponse
)

func (e Effect) Has(f Effect) bool { return e&f != 0 }

// Emits lists the outbound signaling events carried by e, in send order.
func (e Effect) Emits() []domain.EventType {
	var out []domain.EventType
	if e.Has(EmitAccept) {
		out = append(out, domain.EventAccept)
	}
	if e.Has(EmitStartSession) {
		out = append(out, domain.EventStartSession)
	}
	if e.Has(EmitDecline) {
		out = append(out, domain.EventDecline)
	}
	if e.Has(EmitCancel) {
		out = append(out, domain.EventCancel)
	}
	if e.Has(EmitTimeout) {
		out = append(out, domain.EventTimeout)
	}
	return out
}

type Transition struct {
	Trigger Trigger
	Role    domain.Role
	To      domain.Phase
	Effects Effect
}

// Transitions is the complete table. Every transition starts in Ringing.
var Transitions = []Transition{
	{LocalAccept, domain.RoleCallee, domain.PhaseAccepted, EmitAccept | EmitStartSession | HandOff},
	{RemoteAccept, domain.RoleCaller, domain.PhaseAccepted, HandOff},
	{LocalDecline, domain.RoleCallee, domain.PhaseDeclined, EmitDecline | CloseUI},
	{RemoteDecline, domain.RoleCaller, domain.PhaseDeclined, ShowDeclined},
	{LocalCancel, domain.RoleCaller, domain.PhaseCancelled, EmitCancel | CloseUI},
	{RemoteCancel, domain.RoleCallee, domain.PhaseCancelled, CloseUI},
	{Deadline, domain.RoleCaller, domain.PhaseTimedOut, EmitTimeout | ShowNoResponse},
	{RemoteTimeout, domain.RoleCallee, domain.PhaseTimedOut, ShowNoResponse},
}

func lookup(t Trigger) (Transition, bool) {
	for _, tr := range Transitions {
		if tr.Trigger == t {
			return tr, true
		}
	}
	return Transition{}, false
}

// ForEvent maps an inbound signaling event to the trigger it fires for a
// session in the given role.
func ForEvent(role domain.Role, t domain.EventType) (Trigger, bool) {
	switch role {
	case domain.RoleCaller:
		switch t {
		case domain.EventAccept, domain.EventStartSession:
			return RemoteAccept, true
		case domain.EventDecline:
			return RemoteDecline, true
		}
	case domain.RoleCallee:
		switch t {
		case domain.EventCancel:
			return RemoteCancel, true
		case domain.EventTimeout:
			return RemoteTimeout, true
		}
	}
	return "", false
}
