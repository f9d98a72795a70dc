package lobby

import (
	"sort"
	"sync"
)

// Registry maps an account to its single live session.
type Registry struct {
	mu        sync.RWMutex
	byAccount map[string]*Session
}

type RegistryEntry struct {
	AccountID string
	Session   *Session
}

func NewRegistry() *Registry {
	return &Registry{byAccount: map[string]*Session{}}
}

// Register fails with ErrAlreadyOnline when the account already has a
// session; the existing session is left untouched.
func (r *Registry) Register(accountID string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byAccount[accountID]; ok {
		return ErrAlreadyOnline
	}
	r.byAccount[accountID] = s
	return nil
}

// Unregister removes the account's entry. When s is non-nil the entry is
// removed only if it still belongs to s.
func (r *Registry) Unregister(accountID string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byAccount[accountID]
	if !ok || (s != nil && cur != s) {
		return false
	}
	delete(r.byAccount, accountID)
	return true
}

func (r *Registry) Lookup(accountID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byAccount[accountID]
	return s, ok
}

// Snapshot returns every entry ordered by account id.
func (r *Registry) Snapshot() []RegistryEntry {
	r.mu.RLock()
	out := make([]RegistryEntry, 0, len(r.byAccount))
	for id, s := range r.byAccount {
		out = append(out, RegistryEntry{AccountID: id, Session: s})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAccount)
}
