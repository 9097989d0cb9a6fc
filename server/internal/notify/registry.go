package notify

import (
	"iter"
	"sync"
)

// Identity is what a connection declared in its register message.
// An empty field means the client sent no usable value; it never matches a
// targeted notification.
type Identity struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Registry is the set of live connections and the identity attached to each.
// It is the only place the hub and the dispatcher look connections up; there
// is no secondary index, so every match is a scan over all entries.
//
// A connection enters the Registry unregistered (nil identity) and is reachable
// only by broadcast until SetIdentity is called for it.
type Registry struct {
	mu      sync.RWMutex
	entries map[*Conn]*Identity
}

// RegistryStats is a point-in-time summary used by /ws/stats.
type RegistryStats struct {
	Total      int            `json:"total"`
	Registered int            `json:"registered"`
	Roles      map[string]int `json:"roles"`
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[*Conn]*Identity)}
}

// Add inserts c without an identity. Adding a connection twice is a no-op.
func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[c]; !ok {
		r.entries[c] = nil
	}
}

// SetIdentity replaces the identity of c. It reports false, and changes
// nothing, when c is not in the Registry.
func (r *Registry) SetIdentity(c *Conn, id Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[c]; !ok {
		return false
	}
	r.entries[c] = &id
	return true
}

// Remove deletes c. It reports whether c was present.
func (r *Registry) Remove(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[c]; !ok {
		return false
	}
	delete(r.entries, c)
	return true
}

// Identity returns the identity of c and whether c has registered.
func (r *Registry) Identity(c *Conn) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := r.entries[c]
	if id == nil {
		return Identity{}, false
	}
	return *id, true
}

// Len returns the number of connections in the Registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Stats counts connections, registered connections and registered
// connections per role.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := RegistryStats{Total: len(r.entries), Roles: make(map[string]int)}
	for _, id := range r.entries {
		if id == nil {
			continue
		}
		st.Registered++
		if id.Role != "" {
			st.Roles[id.Role]++
		}
	}
	return st
}

// MatchingUsers yields every registered connection whose user id is in ids.
// The scan runs each time the sequence is ranged over, so the result reflects
// the Registry at that moment.
func (r *Registry) MatchingUsers(ids []string) iter.Seq[*Conn] {
	want := toSet(ids)
	return r.filter(func(id *Identity) bool {
		return id != nil && id.UserID != "" && want[id.UserID]
	})
}

// MatchingRoles yields every registered connection whose role is in roles.
func (r *Registry) MatchingRoles(roles []string) iter.Seq[*Conn] {
	want := toSet(roles)
	return r.filter(func(id *Identity) bool {
		return id != nil && id.Role != "" && want[id.Role]
	})
}

// All yields every connection, registered or not.
func (r *Registry) All() iter.Seq[*Conn] {
	return r.filter(func(*Identity) bool { return true })
}

// filter snapshots the matching connections under the read lock and yields
// them after releasing it, so consumers may block or call back into the
// Registry without deadlocking.
func (r *Registry) filter(match func(*Identity) bool) iter.Seq[*Conn] {
	return func(yield func(*Conn) bool) {
		r.mu.RLock()
		matched := make([]*Conn, 0, len(r.entries))
		for c, id := range r.entries {
			if match(id) {
				matched = append(matched, c)
			}
		}
		r.mu.RUnlock()

		for _, c := range matched {
			if !yield(c) {
				return
			}
		}
	}
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		if v != "" {
			set[v] = true
		}
	}
	return set
}
