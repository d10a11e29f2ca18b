package domain

import "time"

type EventType string

const (
	EventInvite       EventType = "invite"
	EventAccept       EventType = "accept"
	EventDecline      EventType = "decline"
	EventCancel       EventType = "cancel"
	EventTimeout      EventType = "timeout"
	EventStartSession EventType = "start-session"
	EventEndCall      EventType = "end-call"
	EventRemoteEnded  EventType = "remote-ended"
)

// Known reports whether t belongs to the signaling vocabulary.
func (t EventType) Known() bool {
	switch t {
	case EventInvite, EventAccept, EventDecline, EventCancel, EventTimeout,
		EventStartSession, EventEndCall, EventRemoteEnded:
		return true
	}
	return false
}

// Event is the signaling envelope exchanged through the relay.
type Event struct {
	Type   EventType `json:"type"`
	CallID CallID    `json:"call_id"`
	From   UserID    `json:"from"`
	To     UserID    `json:"to"`

	// invite only
	CallerID      UserID `json:"caller_id,omitempty"`
	CalleeID      UserID `json:"callee_id,omitempty"`
	CallerDisplay string `json:"caller_display,omitempty"`
	CallerAvatar  string `json:"caller_avatar,omitempty"`

	SentAt time.Time `json:"sent_at"`
}

// NewInvite builds the invite payload carrying the caller snapshot.
func NewInvite(id CallID, caller, callee Participant, at time.Time) Event {
	return Event{
		Type:          EventInvite,
		CallID:        id,
		From:          caller.ID,
		To:            callee.ID,
		CallerID:      caller.ID,
		CalleeID:      callee.ID,
		CallerDisplay: caller.DisplayName,
		CallerAvatar:  caller.AvatarRef,
		SentAt:        at,
	}
}

// Caller returns the minimal caller snapshot carried by an invite.
func (e Event) Caller() Participant {
	id := e.CallerID
	if id == "" {
		id = e.From
	}
	return Participant{ID: id, DisplayName: e.CallerDisplay, AvatarRef: e.CallerAvatar}
}

// ForRecipient is the event as delivered to the counterpart: a party that
// ends the call sends end-call, the other side observes remote-ended.
func (e Event) ForRecipient() Event {
	if e.Type == EventEndCall {
		e.Type = EventRemoteEnded
	}
	return e
}
