package game

import (
	"sort"
	"sync"
)

// Registry maps a channel to its single live session.
type Registry interface {
	Get(channelID string) (*Session, bool)
	// Create fails with ErrAlreadyActive if the channel already has a session.
	Create(channelID string, s *Session) error
	// Remove is idempotent.
	Remove(channelID string)
	// RemoveSession removes s only if it is still the channel's session.
	RemoveSession(s *Session)
	List() []*Session
}

// memoryRegistry manages all active sessions.
type memoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryRegistry creates an empty in-process Registry.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{sessions: make(map[string]*Session)}
}

func (r *memoryRegistry) Get(channelID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[channelID]
	return s, ok
}

func (r *memoryRegistry) Create(channelID string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[channelID]; ok {
		return ErrAlreadyActive
	}
	r.sessions[channelID] = s
	return nil
}

func (r *memoryRegistry) Remove(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, channelID)
}

func (r *memoryRegistry) RemoveSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.ChannelID]; ok && cur == s {
		delete(r.sessions, s.ChannelID)
	}
}

// List returns active sessions ordered by start time.
func (r *memoryRegistry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].StartedAt.Before(list[j].StartedAt)
	})
	return list
}
