package app

import (
	"fmt"
	"math/rand"

	"quizhost-service/internal/domain"
)

// player is a participant who joined a session. A player belongs to exactly
// one session for its whole lifetime; the id is process-global, the name is
// unique within the session.
type player struct {
	id    int
	name  string
	score int

	// answered lists the question positions this player currently has a
	// correct submission for, in the order correctness was earned. The index
	// within this list is the "answer time" proxy used by question results.
	answered    []int
	submissions map[int]*submission
}

// submission is a player's latest answer set for one question position.
type submission struct {
	answerIDs []string
	correct   bool
	points    int
}

// Join adds a player to the session while it is in LOBBY. An empty name is
// replaced with a generated one, re-generated until it is free within this
// session. allocID is only invoked once validation has passed, so ids are
// never burned on rejected joins.
func (s *Session) Join(name string, allocID func() int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateLobby {
		return 0, fmt.Errorf("%w: session %d is not in LOBBY", domain.ErrInvalidState, s.id)
	}

	if name == "" {
		name = s.generateNameLocked()
	} else if s.nameTakenLocked(name) {
		return 0, fmt.Errorf("%w: name %q already taken in session %d", domain.ErrInvalidInput, name, s.id)
	}

	p := &player{
		id:          allocID(),
		name:        name,
		submissions: make(map[int]*submission),
	}
	s.players = append(s.players, p)
	return p.id, nil
}

// PlayerStatus is the read-only projection a joined player polls.
func (s *Session) PlayerStatus() domain.PlayerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.PlayerStatus{
		State:        s.state,
		NumQuestions: len(s.snapshot.Questions),
		AtQuestion:   s.atQuestion,
	}
}

// SubmitAnswer records a player's answer set for the currently open question.
// A resubmission replaces the prior one: previously awarded points for the
// question are reverted before the new set is scored. Scoring is
// all-or-nothing against the question's full correct-answer set.
func (s *Session) SubmitAnswer(playerID, questionPosition int, answerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerLocked(playerID)
	if p == nil {
		return fmt.Errorf("%w: player %d not in session %d", domain.ErrNotFound, playerID, s.id)
	}
	if questionPosition < 1 || questionPosition > len(s.snapshot.Questions) {
		return fmt.Errorf("%w: question position %d out of range 1-%d", domain.ErrNotFound, questionPosition, len(s.snapshot.Questions))
	}
	if s.state != domain.StateQuestionOpen {
		return fmt.Errorf("%w: question %d is not open for answers", domain.ErrInvalidState, questionPosition)
	}
	if questionPosition > s.atQuestion {
		return fmt.Errorf("%w: question %d has not been asked yet", domain.ErrInvalidState, questionPosition)
	}
	if questionPosition < s.atQuestion {
		return fmt.Errorf("%w: question %d is no longer accepting answers", domain.ErrInvalidState, questionPosition)
	}

	question := s.snapshot.Questions[questionPosition-1]
	if len(answerIDs) == 0 {
		return fmt.Errorf("%w: empty answer id list", domain.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(answerIDs))
	for _, id := range answerIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate answer id %q", domain.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
		if !questionHasAnswer(question, id) {
			return fmt.Errorf("%w: answer id %q does not belong to question %d", domain.ErrInvalidInput, id, questionPosition)
		}
	}

	// Revert any prior submission for this question before rescoring.
	if prior, ok := p.submissions[questionPosition]; ok && prior.correct {
		p.score -= prior.points
		p.dropAnswered(questionPosition)
	}

	correct := matchesCorrectSet(question, seen)
	sub := &submission{answerIDs: answerIDs, correct: correct, points: question.Points}
	p.submissions[questionPosition] = sub
	if correct {
		p.score += question.Points
		p.answered = append(p.answered, questionPosition)
	}
	return nil
}

func (p *player) dropAnswered(questionPosition int) {
	for i, pos := range p.answered {
		if pos == questionPosition {
			p.answered = append(p.answered[:i], p.answered[i+1:]...)
			return
		}
	}
}

func (s *Session) playerLocked(playerID int) *player {
	for _, p := range s.players {
		if p.id == playerID {
			return p
		}
	}
	return nil
}

func (s *Session) nameTakenLocked(name string) bool {
	for _, p := range s.players {
		if p.name == name {
			return true
		}
	}
	return false
}

// generateNameLocked produces a 5-letter + 3-digit name, retrying until it
// does not collide with any player already in this session.
func (s *Session) generateNameLocked() string {
	for {
		name := randomPlayerName()
		if !s.nameTakenLocked(name) {
			return name
		}
	}
}

const nameLetters = "abcdefghijklmnopqrstuvwxyz"

func randomPlayerName() string {
	buf := make([]byte, 8)
	for i := 0; i < 5; i++ {
		buf[i] = nameLetters[rand.Intn(len(nameLetters))]
	}
	for i := 5; i < 8; i++ {
		buf[i] = byte('0' + rand.Intn(10))
	}
	return string(buf)
}

func questionHasAnswer(q domain.Question, answerID string) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

// matchesCorrectSet reports whether the submitted set equals the question's
// correct-answer set exactly. Partial overlap earns nothing.
func matchesCorrectSet(q domain.Question, submitted map[string]struct{}) bool {
	correct := 0
	for _, a := range q.Answers {
		if !a.Correct {
			continue
		}
		correct++
		if _, ok := submitted[a.ID]; !ok {
			return false
		}
	}
	return correct == len(submitted)
}
