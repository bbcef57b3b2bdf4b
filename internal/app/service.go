package app

import (
	"context"
	"fmt"
	"sort"

	"quizhost-service/internal/domain"
)

// maxAutoStartNum caps the configurable player-count threshold recorded on a
// session. The threshold is recorded only; it never drives a transition.
const maxAutoStartNum = 50

// maxLiveSessionsPerQuiz bounds how many non-ended sessions one quiz may have.
const maxLiveSessionsPerQuiz = 10

// SessionRepository abstracts how sessions are stored and indexed (in-memory,
// Redis-tracked, etc). Session and player ids are process-global and
// monotonic.
type SessionRepository interface {
	NextSessionID() int
	NextPlayerID() int
	Add(s *Session)
	Get(sessionID int) (*Session, bool)
	ByQuiz(quizID string) []*Session
	All() []*Session
	BindPlayer(playerID int, s *Session)
	ByPlayer(playerID int) (*Session, bool)
}

// SessionEndObserver is optionally implemented by repositories that track
// session liveness externally (e.g. Redis index keys).
type SessionEndObserver interface {
	SessionEnded(sessionID int)
}

// QuizRepository loads quiz content (from cache/backing store). The session
// core reads quiz content exactly once, at session start.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SessionService owns the session lifecycle use cases: the operator surface
// (start, action, inspect, list) and the player surface (join, status,
// answers, results).
type SessionService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	timers   TimerService
}

func NewSessionService(store SessionRepository, quizzes QuizRepository, timers TimerService) *SessionService {
	return &SessionService{sessions: store, quizzes: quizzes, timers: timers}
}

// StartSession snapshots the quiz's current content and creates a session in
// LOBBY. The caller's identity is already verified; this only checks that it
// matches the quiz owner.
func (s *SessionService) StartSession(ctx context.Context, ownerID, quizID string, autoStartNum int) (int, error) {
	if autoStartNum < 0 || autoStartNum > maxAutoStartNum {
		return 0, fmt.Errorf("%w: autoStartNum %d out of range 0-%d", domain.ErrInvalidInput, autoStartNum, maxAutoStartNum)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	if quiz.OwnerID != ownerID {
		return 0, fmt.Errorf("%w: user %s does not own quiz %s", domain.ErrForbidden, ownerID, quizID)
	}
	if len(quiz.Questions) == 0 {
		return 0, fmt.Errorf("%w: quiz %s has no questions", domain.ErrPrecondition, quizID)
	}

	live := 0
	for _, existing := range s.sessions.ByQuiz(quizID) {
		if !existing.Ended() {
			live++
		}
	}
	if live >= maxLiveSessionsPerQuiz {
		return 0, fmt.Errorf("%w: quiz %s already has %d live sessions", domain.ErrPrecondition, quizID, live)
	}

	session := newSession(s.sessions.NextSessionID(), quiz, autoStartNum, s.timers)
	s.sessions.Add(session)
	return session.ID(), nil
}

// ApplyAction applies an operator action to a session.
func (s *SessionService) ApplyAction(_ context.Context, ownerID, quizID string, sessionID int, action string) error {
	session, err := s.ownedSession(ownerID, quizID, sessionID)
	if err != nil {
		return err
	}
	if err := session.ApplyAction(action); err != nil {
		return err
	}
	if session.Ended() {
		s.notifyEnded(sessionID)
	}
	return nil
}

// GetSession returns the operator projection of a session.
func (s *SessionService) GetSession(_ context.Context, ownerID, quizID string, sessionID int) (domain.SessionStatus, error) {
	session, err := s.ownedSession(ownerID, quizID, sessionID)
	if err != nil {
		return domain.SessionStatus{}, err
	}
	return session.Status(), nil
}

// ListSessions splits a quiz's sessions into active and ended, both sorted
// ascending by id.
func (s *SessionService) ListSessions(ctx context.Context, ownerID, quizID string) (domain.SessionList, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SessionList{}, err
	}
	if quiz.OwnerID != ownerID {
		return domain.SessionList{}, fmt.Errorf("%w: user %s does not own quiz %s", domain.ErrForbidden, ownerID, quizID)
	}

	list := domain.SessionList{ActiveSessions: []int{}, InactiveSessions: []int{}}
	for _, session := range s.sessions.ByQuiz(quizID) {
		if session.Ended() {
			list.InactiveSessions = append(list.InactiveSessions, session.ID())
		} else {
			list.ActiveSessions = append(list.ActiveSessions, session.ID())
		}
	}
	sort.Ints(list.ActiveSessions)
	sort.Ints(list.InactiveSessions)
	return list, nil
}

// Join adds a player to a session's lobby and returns the new player id.
func (s *SessionService) Join(_ context.Context, sessionID int, name string) (int, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return 0, fmt.Errorf("%w: session %d", domain.ErrNotFound, sessionID)
	}
	playerID, err := session.Join(name, s.sessions.NextPlayerID)
	if err != nil {
		return 0, err
	}
	s.sessions.BindPlayer(playerID, session)
	return playerID, nil
}

// PlayerStatus reflects the owning session's state for a joined player.
func (s *SessionService) PlayerStatus(_ context.Context, playerID int) (domain.PlayerStatus, error) {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return domain.PlayerStatus{}, fmt.Errorf("%w: player %d", domain.ErrNotFound, playerID)
	}
	return session.PlayerStatus(), nil
}

// SubmitAnswer records a player's answer set for the currently open question.
func (s *SessionService) SubmitAnswer(_ context.Context, playerID, questionPosition int, answerIDs []string) error {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return fmt.Errorf("%w: player %d", domain.ErrNotFound, playerID)
	}
	return session.SubmitAnswer(playerID, questionPosition, answerIDs)
}

// PlayerScore returns a player's running total score.
func (s *SessionService) PlayerScore(_ context.Context, playerID int) (int, error) {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return 0, fmt.Errorf("%w: player %d", domain.ErrNotFound, playerID)
	}
	return session.PlayerScore(playerID)
}

// QuestionResult returns the frozen per-question result for a joined player.
func (s *SessionService) QuestionResult(_ context.Context, playerID, questionPosition int) (domain.QuestionResult, error) {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return domain.QuestionResult{}, fmt.Errorf("%w: player %d", domain.ErrNotFound, playerID)
	}
	return session.QuestionResult(questionPosition)
}

// FinalResults returns the session-wide ranking once the session reached
// FINAL_RESULTS.
func (s *SessionService) FinalResults(_ context.Context, sessionID int) (domain.FinalResults, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.FinalResults{}, fmt.Errorf("%w: session %d", domain.ErrNotFound, sessionID)
	}
	return session.FinalResults()
}

// EndAllSessions force-ends every live session, cancelling outstanding
// timers. Called on graceful shutdown.
func (s *SessionService) EndAllSessions() {
	for _, session := range s.sessions.All() {
		if session.End() == nil {
			s.notifyEnded(session.ID())
		}
	}
}

func (s *SessionService) ownedSession(ownerID, quizID string, sessionID int) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %d", domain.ErrNotFound, sessionID)
	}
	if session.QuizID() != quizID {
		return nil, fmt.Errorf("%w: session %d does not belong to quiz %s", domain.ErrNotFound, sessionID, quizID)
	}
	if session.OwnerID() != ownerID {
		return nil, fmt.Errorf("%w: user %s does not own session %d", domain.ErrForbidden, ownerID, sessionID)
	}
	return session, nil
}

func (s *SessionService) notifyEnded(sessionID int) {
	if observer, ok := s.sessions.(SessionEndObserver); ok {
		observer.SessionEnded(sessionID)
	}
}
