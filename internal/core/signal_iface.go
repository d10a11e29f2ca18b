package core

import (
	"context"

	"github.com/dkeye/duet/internal/domain"
)

//go:generate mockgen -source=signal_iface.go -destination=mocks/signal_mock.go -package=mocks

// Frame is a raw serialized signaling payload.
type Frame []byte

// SignalConnection abstracts the relay's per-client messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// SignalingChannel is the client's persistent channel to the relay.
// Delivery is at least once with no ordering across event types.
type SignalingChannel interface {
	// Send is fire-and-forget. It returns domain.ErrSignalingUnavailable
	// when the event was dropped; callers must not depend on delivery.
	Send(ctx context.Context, ev domain.Event) error
	// Subscribe registers fn for inbound events and returns a function
	// that detaches it.
	Subscribe(fn func(domain.Event)) (cancel func())
}
