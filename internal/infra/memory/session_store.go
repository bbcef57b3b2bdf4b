package memory

import (
	"sync"

	"quizhost-service/internal/app"
)

// SessionStore is the in-memory implementation of app.SessionRepository.
// Sessions and the player index live in flat maps keyed by id; a player entry
// points at its owning session rather than the session holding back-pointers.
type SessionStore struct {
	mu            sync.RWMutex
	nextSessionID int
	nextPlayerID  int
	sessions      map[int]*app.Session
	byQuiz        map[string][]*app.Session
	byPlayer      map[int]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int]*app.Session),
		byQuiz:   make(map[string][]*app.Session),
		byPlayer: make(map[int]*app.Session),
	}
}

func (s *SessionStore) NextSessionID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSessionID++
	return s.nextSessionID
}

func (s *SessionStore) NextPlayerID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPlayerID++
	return s.nextPlayerID
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	s.byQuiz[session.QuizID()] = append(s.byQuiz[session.QuizID()], session)
}

func (s *SessionStore) Get(sessionID int) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) ByQuiz(quizID string) []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Session, len(s.byQuiz[quizID]))
	copy(out, s.byQuiz[quizID])
	return out
}

func (s *SessionStore) All() []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

func (s *SessionStore) BindPlayer(playerID int, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPlayer[playerID] = session
}

func (s *SessionStore) ByPlayer(playerID int) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byPlayer[playerID]
	return session, ok
}
