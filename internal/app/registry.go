package app

import (
	"context"
	"sync"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Registry maps connected users to their signaling session. A user has at
// most one live connection; a newer one replaces the older.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.UserID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.UserID]*sessionEntry)}
}

// Bind registers sess for its user. A replaced session is cancelled.
func (r *Registry) Bind(sess core.MemberSession, cancel context.CancelFunc) {
	id := sess.Meta().ID
	r.mu.Lock()
	old := r.sessions[id]
	r.sessions[id] = &sessionEntry{Session: sess, Cancel: cancel}
	r.mu.Unlock()

	if old != nil && old.Cancel != nil {
		old.Cancel()
		log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("replaced previous connection")
	}
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("bound session")
}

func (r *Registry) Get(id domain.UserID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Session, true
	}
	return nil, false
}

// Unbind removes sess if it is still the user's current session and
// reports whether it was.
func (r *Registry) Unbind(sess core.MemberSession) bool {
	id := sess.Meta().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok || e.Session != sess {
		return false
	}
	delete(r.sessions, id)
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("unbind session")
	return true
}

func (r *Registry) Cancel(id domain.UserID) bool {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("canceled session")
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
