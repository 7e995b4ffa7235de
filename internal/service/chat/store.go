package chat

import (
	"errors"
	"sync"

	"github.com/zhouzirui/saint-chat/backend/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// Store maps session identifiers to their conversation history. Sessions
// are created lazily and live for the life of the process; nothing is
// evicted, so memory grows with the number of distinct session ids.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*History
}

// NewStore bootstraps the in-memory session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*History)}
}

// GetOrCreate returns the history bound to sessionID, creating it on first
// use. Repeated calls with the same id return the same *History.
func (s *Store) GetOrCreate(sessionID string) *History {
	s.mu.RLock()
	history, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return history
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if history, ok := s.sessions[sessionID]; ok {
		return history
	}
	history = &History{turns: make([]chat.Turn, 0, 16)}
	s.sessions[sessionID] = history
	return history
}

// Lookup returns the history for sessionID without creating it.
func (s *Store) Lookup(sessionID string) (*History, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.sessions[sessionID]
	return history, ok
}

// Len reports how many sessions have been created.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Transcript returns a copy of the turns stored for sessionID.
func (s *Store) Transcript(sessionID string) (chat.Transcript, error) {
	history, ok := s.Lookup(sessionID)
	if !ok {
		return chat.Transcript{}, ErrSessionNotFound
	}
	return chat.Transcript{SessionID: sessionID, Turns: history.Turns()}, nil
}

// History is an append-only, ordered sequence of turns.
type History struct {
	mu    sync.RWMutex
	turns []chat.Turn
}

// Append adds turns in order. Turns passed in one call stay adjacent.
func (h *History) Append(turns ...chat.Turn) {
	h.mu.Lock()
	h.turns = append(h.turns, turns...)
	h.mu.Unlock()
}

// Turns returns a snapshot of the history.
func (h *History) Turns() []chat.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	copied := make([]chat.Turn, len(h.turns))
	copy(copied, h.turns)
	return copied
}

// Len reports the number of stored turns.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}
