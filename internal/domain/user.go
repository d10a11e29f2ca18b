// Package domain contains call entities without behaviour beyond validation.
package domain

import (
	"errors"
)

const (
	MaxUserIDLen      = 64
	MaxDisplayNameLen = 64
)

var (
	ErrUserIDEmpty        = errors.New("user id empty")
	ErrUserIDTooLong      = errors.New("user id too long")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

type UserID string

// Participant is a snapshot of a user taken when a call starts.
// It is never refreshed from the directory once the call has ended.
type Participant struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}

// NewParticipant validates the identity fields. An empty display name falls
// back to the id so a call can always be shown.
func NewParticipant(id UserID, displayName, avatarRef string) (Participant, error) {
	if len(id) == 0 {
		return Participant{}, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return Participant{}, ErrUserIDTooLong
	}
	if len(displayName) > MaxDisplayNameLen {
		return Participant{}, ErrDisplayNameTooLong
	}
	if displayName == "" {
		displayName = string(id)
	}
	return Participant{ID: id, DisplayName: displayName, AvatarRef: avatarRef}, nil
}

// Name returns the display name, or the id when the snapshot is minimal.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return string(p.ID)
}
