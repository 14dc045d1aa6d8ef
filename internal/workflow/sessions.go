package workflow

import (
	"sync"

	"github.com/leadops/synergy-agents/internal/domain"
)

// session is the mutable per-session workflow state. Each session carries its
// own mutex so decisions on the same session never interleave while distinct
// sessions stay fully independent.
type session struct {
	mu sync.Mutex

	request       domain.StartSessionRequest
	status        domain.SessionStatus
	snapshot      domain.LeadSnapshot
	businessUnits []domain.BusinessUnit
	draft         domain.Draft
	pendingStep   *domain.PendingStep
	messages      []domain.AgentMessage
	finalResult   *domain.FinalResult
	errText       string
}

// envelope projects the session into its caller-facing shape. Callers must
// hold the session mutex.
func (s *session) envelope() domain.SessionEnvelope {
	messages := make([]domain.AgentMessage, len(s.messages))
	copy(messages, s.messages)

	return domain.SessionEnvelope{
		SessionID:     s.request.SessionID,
		Status:        s.status,
		PendingStep:   s.pendingStep,
		AgentMessages: messages,
		Draft:         s.draft,
		FinalResult:   s.finalResult,
		Error:         s.errText,
	}
}

// SessionStore is a process-wide keyed container holding one workflow
// instance per session identifier. Insert and lookup are safe under
// concurrent access; per-session mutation is serialized by the session mutex.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*session)}
}

func (s *SessionStore) put(id string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *SessionStore) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Len reports the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
