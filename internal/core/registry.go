package core

import "github.com/vovakirdan/chatrelay/internal/proto"

// Registry is the ordered set of registered sessions keyed by nickname.
// It is not safe for concurrent use; Hub serializes access under its mutex.
type Registry struct {
	max     int
	members []*Session
	byName  map[string]*Session
}

// NewRegistry returns an empty registry holding at most maxUsers sessions.
func NewRegistry(maxUsers int) *Registry {
	return &Registry{
		max:    maxUsers,
		byName: make(map[string]*Session, maxUsers),
	}
}

// TryRegister inserts s under nickname and marks it registered.
// A taken nickname is reported before a full room.
func (r *Registry) TryRegister(nickname string, s *Session) error {
	if _, taken := r.byName[nickname]; taken {
		return ErrDuplicateName
	}
	if r.Full() {
		return ErrCapacityFull
	}
	r.members = append(r.members, s)
	r.byName[nickname] = s
	s.markRegistered(nickname)
	return nil
}

// Remove deletes s. It reports whether s was a member.
func (r *Registry) Remove(s *Session) bool {
	for i, m := range r.members {
		if m != s {
			continue
		}
		r.members = append(r.members[:i], r.members[i+1:]...)
		delete(r.byName, s.Nickname())
		return true
	}
	return false
}

// Snapshot renders one report entry per member in registration order.
func (r *Registry) Snapshot() []string {
	entries := make([]string, 0, len(r.members))
	for _, m := range r.members {
		entries = append(entries, proto.ReportEntry(m.Nickname(), m.RemoteAddr))
	}
	return entries
}

// Members returns the registered sessions in registration order.
func (r *Registry) Members() []*Session {
	out := make([]*Session, len(r.members))
	copy(out, r.members)
	return out
}

// Size returns the number of members.
func (r *Registry) Size() int {
	return len(r.members)
}

// Full reports whether another registration would exceed capacity.
func (r *Registry) Full() bool {
	return len(r.members) >= r.max
}

// Contains reports whether nickname is registered.
func (r *Registry) Contains(nickname string) bool {
	_, ok := r.byName[nickname]
	return ok
}

// Max returns the capacity.
func (r *Registry) Max() int {
	return r.max
}
