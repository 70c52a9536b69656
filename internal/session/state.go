package session

import (
	"sync"
	"unicode/utf8"

	"bizadvisor/internal/index"
)

// Turn is one conversation entry kept for prompt building. Only exchanges
// that produced a real answer are ever appended.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the mutable in-memory state one chat session exclusively owns:
// the vector index over its uploaded document and the bounded conversation
// buffer. All access goes through the mutex so concurrent requests for the
// same session stay safe.
type State struct {
	mu          sync.Mutex
	idx         *index.VectorIndex
	history     []Turn
	tokenBudget int
}

// InstallIndex replaces the session's knowledge base and resets the
// conversation buffer: a new successful ingestion always starts a fresh
// conversation over the new document.
func (s *State) InstallIndex(idx *index.VectorIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = idx
	s.history = nil
}

// ClearIndex drops the knowledge base but keeps the conversation.
func (s *State) ClearIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = nil
}

// Index returns the current knowledge base, or nil when none is installed.
func (s *State) Index() *index.VectorIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

// AppendExchange records a completed user/assistant exchange, then evicts
// the oldest turns until the buffer fits the token budget again.
func (s *State) AppendExchange(userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		Turn{Role: "user", Content: userText},
		Turn{Role: "assistant", Content: assistantText},
	)
	for len(s.history) > 0 && s.totalTokens() > s.tokenBudget {
		s.history = s.history[1:]
	}
}

// History returns a copy of the current buffer in order.
func (s *State) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *State) ResetHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

func (s *State) totalTokens() int {
	total := 0
	for _, t := range s.history {
		total += estimateTokens(t.Content)
	}
	return total
}

// Rough token estimate, ~4 characters per token.
func estimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return n/4 + 1
}

// Manager hands out the state belonging to a session ID. States are created
// lazily and fully isolated from each other.
type Manager struct {
	mu          sync.RWMutex
	states      map[uint]*State
	tokenBudget int
}

func NewManager(tokenBudget int) *Manager {
	if tokenBudget <= 0 {
		tokenBudget = 3000
	}
	return &Manager{
		states:      make(map[uint]*State),
		tokenBudget: tokenBudget,
	}
}

func (m *Manager) Get(sessionID uint) *State {
	m.mu.RLock()
	state, ok := m.states[sessionID]
	m.mu.RUnlock()
	if ok {
		return state
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[sessionID]; ok {
		return state
	}
	state = &State{tokenBudget: m.tokenBudget}
	m.states[sessionID] = state
	return state
}

// Drop discards a session's state entirely, for session deletion.
func (m *Manager) Drop(sessionID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionID)
}
