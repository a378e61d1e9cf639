package chat

import (
	"errors"
	"time"
)

// ErrEmptyConnID is returned when a session is registered without a
// connection id.
var ErrEmptyConnID = errors.New("chat: empty connection id")

// Session is the live association between a connection and a user.
type Session struct {
	ConnID   string
	Username string
	Role     Role
	// UserID is the stable identifier used by the ban list. It is optional;
	// BanKey falls back to the username when it is empty.
	UserID   string
	JoinedAt time.Time
}

// BanKey returns the identifier this session is checked against in the ban
// list.
func (s Session) BanKey() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.Username
}

// Presence is the public view of a session shown in user lists.
type Presence struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Registry maps live connections to sessions. Iteration order is the order
// in which connections first registered, which makes username lookups
// deterministic when display names collide.
//
// Registry is not safe for concurrent use; Relay serializes access.
type Registry struct {
	sessions map[string]Session
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Register creates or overwrites the session for s.ConnID. Overwriting keeps
// the connection's original position.
func (r *Registry) Register(s Session) error {
	if s.ConnID == "" {
		return ErrEmptyConnID
	}
	if _, exists := r.sessions[s.ConnID]; !exists {
		r.order = append(r.order, s.ConnID)
	}
	r.sessions[s.ConnID] = s
	return nil
}

// Unregister removes the session for connID and returns it. Removing an
// unknown connection is a no-op.
func (r *Registry) Unregister(connID string) (Session, bool) {
	s, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

// Find returns the session for connID.
func (r *Registry) Find(connID string) (Session, bool) {
	s, ok := r.sessions[connID]
	return s, ok
}

// FindByUsername returns the first live session with the given username.
func (r *Registry) FindByUsername(username string) (Session, bool) {
	for _, id := range r.order {
		if s := r.sessions[id]; s.Username == username {
			return s, true
		}
	}
	return Session{}, false
}

// Snapshot returns all sessions in registration order.
func (r *Registry) Snapshot() []Session {
	out := make([]Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

// Presence returns the user list broadcast to clients.
func (r *Registry) Presence() []Presence {
	out := make([]Presence, 0, len(r.order))
	for _, id := range r.order {
		s := r.sessions[id]
		out = append(out, Presence{Username: s.Username, Role: s.Role})
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}
