// Package session keeps per-session conversation history in memory for
// the life of the process.
package session

import "sync"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one conversation message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store maps session ids to ordered, append-only histories. Mutation is
// serialized by the store lock; histories grow without bound for the
// life of the process. Eviction would slot in here without touching
// the orchestrator.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

func NewStore() *Store {
	return &Store{sessions: make(map[string][]Turn)}
}

// History returns a copy of the session's turns so far. An unseen id
// yields an empty history.
func (s *Store) History(id string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[id]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to the session's history, creating it on first use.
func (s *Store) Append(id string, turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = append(s.sessions[id], turns...)
}
