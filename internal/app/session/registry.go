/*
Package session contains the core state tracked per connected participant:
the connection registry of live sessions and the profile store mapping a
session to its user-chosen identity.

Both structures are owned and mutated exclusively by the hub's dispatch
goroutine; they carry no locks of their own.
*/
package session

import (
	"sort"
	"time"

	"quickdrop/internal/pkg/randx"
)

// Session identifies one live client connection.
type Session struct {
	// ID is the opaque process-lifetime-unique identifier assigned at connect time.
	ID string `json:"id"`

	// RemoteAddr is the peer address the connection arrived from.
	RemoteAddr string `json:"-"`

	// ConnectedAt is the server time the connection was accepted.
	ConnectedAt time.Time `json:"connectedAt"`
}

// Registry tracks live transport sessions.
type Registry struct {
	sessions map[string]Session
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Session),
	}
}

// Register creates a new Session with a fresh unique identifier and records it.
func (r *Registry) Register(remoteAddr string) Session {
	s := Session{
		ID:          randx.SessionID(),
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
	}

	r.sessions[s.ID] = s

	return s
}

// Unregister removes the session with the given id. Unknown ids are ignored,
// so disconnect races never propagate an error.
func (r *Registry) Unregister(id string) {
	delete(r.sessions, id)
}

// Contains reports whether the given id belongs to a live session.
func (r *Registry) Contains(id string) bool {
	_, ok := r.sessions[id]
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// Active returns the live sessions ordered by connect time (id breaks ties),
// so every membership snapshot lists participants in a stable order.
func (r *Registry) Active() []Session {
	active := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		active = append(active, s)
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].ConnectedAt.Equal(active[j].ConnectedAt) {
			return active[i].ID < active[j].ID
		}
		return active[i].ConnectedAt.Before(active[j].ConnectedAt)
	})

	return active
}
