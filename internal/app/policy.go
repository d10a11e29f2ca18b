package app

import (
	"fmt"

	"github.com/dkeye/duet/internal/domain"
)

type BusyAction int

const (
	// Interrupt shows the new invitation. A ringing one is replaced; an
	// active call keeps running until the new invitation is accepted.
	Interrupt BusyAction = iota
	// AutoDecline answers the new invitation with decline.
	AutoDecline
)

func (a BusyAction) String() string {
	switch a {
	case Interrupt:
		return "interrupt"
	case AutoDecline:
		return "auto_decline"
	}
	return fmt.Sprintf("BusyAction(%d)", int(a))
}

// Busy describes what the client is doing when an invite arrives.
type Busy struct {
	CallID  domain.CallID
	Ringing bool
	InCall  bool
}

type InvitePolicy interface {
	OnInviteWhileBusy(busy Busy, incoming domain.Event) BusyAction
}

// ReplacePolicy is last-invite-wins.
type ReplacePolicy struct{}

func (ReplacePolicy) OnInviteWhileBusy(Busy, domain.Event) BusyAction {
	return Interrupt
}

type RejectPolicy struct{}

func (RejectPolicy) OnInviteWhileBusy(Busy, domain.Event) BusyAction {
	return AutoDecline
}

// PolicyByName maps the call.invite_policy setting.
func PolicyByName(name string) (InvitePolicy, error) {
	switch name {
	case "", "replace":
		return ReplacePolicy{}, nil
	case "reject":
		return RejectPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown invite policy %q", name)
}
