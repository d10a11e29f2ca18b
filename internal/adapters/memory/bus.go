package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/duet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Bus relays signaling events between in-process clients the way the relay
// service does: addressed by To, with end-call rewritten to remote-ended.
type Bus struct {
	mu        sync.Mutex
	subs      map[domain.UserID]map[int]func(domain.Event)
	nextSub   int
	down      map[domain.UserID]bool
	duplicate bool
	sent      []domain.Event
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[domain.UserID]map[int]func(domain.Event)),
		down: make(map[domain.UserID]bool),
	}
}

// Channel returns user's endpoint on the bus.
func (b *Bus) Channel(user domain.UserID) *Channel {
	return &Channel{bus: b, user: user}
}

// SetDown makes every Send from user fail as if the channel were
// disconnected.
func (b *Bus) SetDown(user domain.UserID, down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.down[user] = down
}

// Duplicate delivers every event twice.
func (b *Bus) Duplicate(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.duplicate = on
}

// Sent returns the accepted events in send order.
func (b *Bus) Sent() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.sent...)
}

// Inject delivers ev to ev.To as is, bypassing the sender checks.
func (b *Bus) Inject(ev domain.Event) {
	b.deliver(ev, 1)
}

func (b *Bus) send(from domain.UserID, ev domain.Event) error {
	b.mu.Lock()
	if b.down[from] {
		b.mu.Unlock()
		return fmt.Errorf("%s from %s: %w", ev.Type, from, domain.ErrSignalingUnavailable)
	}
	ev.From = from
	b.sent = append(b.sent, ev)
	times := 1
	if b.duplicate {
		times = 2
	}
	b.mu.Unlock()

	b.deliver(ev.ForRecipient(), times)
	return nil
}

func (b *Bus) deliver(ev domain.Event, times int) {
	b.mu.Lock()
	fns := make([]func(domain.Event), 0, len(b.subs[ev.To]))
	for _, fn := range b.subs[ev.To] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	if len(fns) == 0 {
		log.Debug().Str("module", "memory.bus").Str("to", string(ev.To)).Str("type", string(ev.Type)).Msg("no subscriber, event dropped")
		return
	}
	for range times {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

func (b *Bus) subscribe(user domain.UserID, fn func(domain.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	if b.subs[user] == nil {
		b.subs[user] = make(map[int]func(domain.Event))
	}
	b.subs[user][id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[user], id)
	}
}

// Channel implements core.SignalingChannel on a Bus.
type Channel struct {
	bus  *Bus
	user domain.UserID
}

func (c *Channel) Send(_ context.Context, ev domain.Event) error {
	return c.bus.send(c.user, ev)
}

func (c *Channel) Subscribe(fn func(domain.Event)) func() {
	return c.bus.subscribe(c.user, fn)
}
