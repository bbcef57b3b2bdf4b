package app

import (
	"fmt"
	"log"
	"sync"
	"time"

	"quizhost-service/internal/domain"
)

// countdownDuration is the fixed QUESTION_COUNTDOWN window before a question
// opens.
const countdownDuration = 3 * time.Second

// Session is one live run-through of a quiz. All reads and mutations for a
// session, including timer callbacks, are serialized under mu; operations on
// different sessions are fully independent.
type Session struct {
	id           int
	quizID       string
	ownerID      string
	autoStartNum int
	snapshot     domain.Snapshot
	timers       TimerService

	mu         sync.Mutex
	state      domain.State
	atQuestion int // 1-based question position; 0 = no question active
	players    []*player
	results    map[int]domain.QuestionResult // frozen when a question leaves QUESTION_OPEN
	final      *domain.FinalResults

	// pending is the at-most-one outstanding auto-transition timer. timerGen
	// invalidates in-flight callbacks: a fire whose generation no longer
	// matches lost the race against a cancel and becomes a no-op.
	pending  TimerHandle
	timerGen uint64
}

func newSession(id int, quiz domain.Quiz, autoStartNum int, timers TimerService) *Session {
	return &Session{
		id:           id,
		quizID:       quiz.ID,
		ownerID:      quiz.OwnerID,
		autoStartNum: autoStartNum,
		snapshot:     domain.SnapshotOf(quiz),
		timers:       timers,
		state:        domain.StateLobby,
		results:      make(map[int]domain.QuestionResult),
	}
}

// ID returns the session's immutable identifier.
func (s *Session) ID() int {
	return s.id
}

// QuizID returns the id of the quiz this session was started from.
func (s *Session) QuizID() string {
	return s.quizID
}

// OwnerID returns the id of the quiz owner who may operate this session.
func (s *Session) OwnerID() string {
	return s.ownerID
}

// State returns the session's current lifecycle state.
func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ended reports whether the session reached its terminal state.
func (s *Session) Ended() bool {
	return s.State() == domain.StateEnd
}

// Status is the operator projection of the session.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.players))
	for i, p := range s.players {
		names[i] = p.name
	}
	return domain.SessionStatus{
		SessionID:  s.id,
		State:      s.state,
		AtQuestion: s.atQuestion,
		Players:    names,
		Metadata: domain.Metadata{
			QuizID:       s.snapshot.QuizID,
			Name:         s.snapshot.Name,
			Description:  s.snapshot.Description,
			ThumbnailURL: s.snapshot.ThumbnailURL,
			NumQuestions: len(s.snapshot.Questions),
		},
	}
}

// ApplyAction validates and applies an operator action. Unknown action names
// fail as invalid input; actions not permitted in the current state fail as
// invalid state. On error the session is left untouched.
func (s *Session) ApplyAction(name string) error {
	if !domain.KnownAction(name) {
		return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	action := domain.Action(name)
	switch action {
	case domain.ActionNextQuestion:
		return s.nextQuestionLocked()
	case domain.ActionSkipCountdown:
		return s.skipCountdownLocked()
	case domain.ActionGoToAnswer:
		return s.goToAnswerLocked()
	case domain.ActionGoToFinalResults:
		return s.goToFinalResultsLocked()
	case domain.ActionEnd:
		return s.endLocked()
	}
	return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, name)
}

func (s *Session) nextQuestionLocked() error {
	switch s.state {
	case domain.StateLobby, domain.StateQuestionClose, domain.StateAnswerShow:
	default:
		return s.invalidTransition(domain.ActionNextQuestion)
	}
	if s.atQuestion >= len(s.snapshot.Questions) {
		return fmt.Errorf("%w: no questions remain after position %d", domain.ErrInvalidState, s.atQuestion)
	}

	s.cancelPendingLocked()
	s.atQuestion++
	s.state = domain.StateQuestionCountdown
	s.scheduleLocked(countdownDuration, s.openQuestionLocked)
	return nil
}

func (s *Session) skipCountdownLocked() error {
	if s.state != domain.StateQuestionCountdown {
		return s.invalidTransition(domain.ActionSkipCountdown)
	}
	s.cancelPendingLocked()
	s.openQuestionLocked()
	return nil
}

// openQuestionLocked transitions COUNTDOWN -> OPEN and starts the question's
// duration timer. Reached by countdown expiry or SKIP_COUNTDOWN.
func (s *Session) openQuestionLocked() {
	question := s.snapshot.Questions[s.atQuestion-1]
	s.state = domain.StateQuestionOpen
	s.scheduleLocked(time.Duration(question.Duration)*time.Second, s.closeQuestionLocked)
}

// closeQuestionLocked transitions OPEN -> CLOSE when the question's duration
// expires, freezing the question's result.
func (s *Session) closeQuestionLocked() {
	s.state = domain.StateQuestionClose
	s.freezeQuestionResultLocked()
}

func (s *Session) goToAnswerLocked() error {
	switch s.state {
	case domain.StateQuestionOpen, domain.StateQuestionClose:
	default:
		return s.invalidTransition(domain.ActionGoToAnswer)
	}
	s.cancelPendingLocked()
	s.freezeQuestionResultLocked()
	s.state = domain.StateAnswerShow
	return nil
}

func (s *Session) goToFinalResultsLocked() error {
	switch s.state {
	case domain.StateQuestionClose, domain.StateAnswerShow:
	default:
		return s.invalidTransition(domain.ActionGoToFinalResults)
	}
	s.final = s.computeFinalResultsLocked()
	s.state = domain.StateFinalResults
	return nil
}

func (s *Session) endLocked() error {
	if s.state == domain.StateEnd {
		return s.invalidTransition(domain.ActionEnd)
	}
	s.cancelPendingLocked()
	s.state = domain.StateEnd
	return nil
}

// End force-ends the session, cancelling any outstanding timer. Ending an
// already-ended session reports invalid state.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endLocked()
}

func (s *Session) invalidTransition(action domain.Action) error {
	return fmt.Errorf("%w: action %s not permitted in state %s", domain.ErrInvalidState, action, s.state)
}

// scheduleLocked registers the session's single pending auto-transition.
// The callback re-acquires the session mutex and checks its generation, so a
// cancel that wins the race turns the late fire into a no-op.
func (s *Session) scheduleLocked(delay time.Duration, fire func()) {
	s.timerGen++
	gen := s.timerGen
	handle, err := s.timers.Schedule(delay, func() {
		s.onTimerFired(gen, fire)
	})
	if err != nil {
		// Delays here are the fixed countdown or a load-validated question
		// duration, so this only fires on a broken TimerService. The session
		// stays put until an operator action moves it.
		log.Printf("session %d: scheduling %s auto-transition failed: %v", s.id, delay, err)
		return
	}
	s.pending = handle
}

func (s *Session) onTimerFired(gen uint64, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen {
		return
	}
	s.pending = nil
	fire()
}

func (s *Session) cancelPendingLocked() {
	s.timerGen++
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
}
