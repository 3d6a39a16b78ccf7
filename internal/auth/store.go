package auth

import "sync"

// Store maps (scheme, host) to credentials kept in insertion order.
// Implementations must be safe for concurrent use.
type Store interface {
	Lookup(scheme, host string) []Credential
	Add(c Credential) error
	Remove(c Credential) error
}

// MemoryStore is the in-process session store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Credential
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Credential)}
}

func (s *MemoryStore) Lookup(scheme, host string) []Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Credential(nil), s.entries[StoreKey(scheme, host)]...)
}

// Add inserts c or replaces an equal credential in place.
func (s *MemoryStore) Add(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string][]Credential)
	}
	key := c.storeKey()
	list := s.entries[key]
	for i := range list {
		if list[i].Equal(c) {
			list[i] = c
			return nil
		}
	}
	s.entries[key] = append(list, c)
	return nil
}

func (s *MemoryStore) Remove(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := c.storeKey()
	list := s.entries[key]
	for i := range list {
		if list[i].Equal(c) {
			s.entries[key] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(s.entries[key]) == 0 {
		delete(s.entries, key)
	}
	return nil
}

// Clear drops every credential; called at shutdown for the session store.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.entries = make(map[string][]Credential)
	s.mu.Unlock()
}

// LookupAll returns persistent then session credentials for (scheme, host).
func LookupAll(persistent, session Store, scheme, host string) []Credential {
	var out []Credential
	if persistent != nil {
		out = append(out, persistent.Lookup(scheme, host)...)
	}
	if session != nil {
		out = append(out, session.Lookup(scheme, host)...)
	}
	return out
}
