package domain

type Role string

const (
	RoleCaller Role = "caller"
	RoleCallee Role = "callee"
)

// Phase of an invitation. Ringing is the only non-terminal phase.
type Phase string

const (
	PhaseRinging   Phase = "ringing"
	PhaseAccepted  Phase = "accepted"
	PhaseDeclined  Phase = "declined"
	PhaseCancelled Phase = "cancelled"
	PhaseTimedOut  Phase = "timed_out"
)

func (p Phase) Terminal() bool {
	return p != PhaseRinging
}

func (p Phase) String() string { return string(p) }
