package app

import (
	"fmt"
	"math"
	"sort"
	"time"

	"quizhost-service/internal/domain"
)

// freezeQuestionResultLocked captures the current question's outcome the
// moment it stops accepting answers. Idempotent: the first freeze wins, so a
// close-timer fire followed by GO_TO_ANSWER computes it exactly once.
func (s *Session) freezeQuestionResultLocked() {
	pos := s.atQuestion
	if pos < 1 || pos > len(s.snapshot.Questions) {
		return
	}
	if _, done := s.results[pos]; done {
		return
	}

	question := s.snapshot.Questions[pos-1]
	// Non-nil so the projection serializes as [] when nobody was correct.
	correctNames := []string{}
	answerTimeSum := 0
	for _, p := range s.players {
		sub, ok := p.submissions[pos]
		if !ok || !sub.correct {
			continue
		}
		correctNames = append(correctNames, p.name)
		// The "answer time" proxy is the question's 1-based position within
		// the player's answered-order list, not wall-clock latency.
		for i, answeredPos := range p.answered {
			if answeredPos == pos {
				answerTimeSum += i + 1
				break
			}
		}
	}

	avgTime := 0
	if len(correctNames) > 0 {
		avgTime = int(math.Round(float64(answerTimeSum) / float64(len(correctNames))))
	}
	pctCorrect := 0
	if len(s.players) > 0 {
		pctCorrect = int(math.Round(float64(len(correctNames)) / float64(len(s.players)) * 100))
	}

	s.results[pos] = domain.QuestionResult{
		QuestionID:         question.ID,
		PlayersCorrectList: correctNames,
		AverageAnswerTime:  avgTime,
		PercentCorrect:     pctCorrect,
	}
}

// QuestionResult returns the frozen result for questionPosition. Only valid
// while the session is showing that question's answers.
func (s *Session) QuestionResult(questionPosition int) (domain.QuestionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if questionPosition < 1 || questionPosition > len(s.snapshot.Questions) {
		return domain.QuestionResult{}, fmt.Errorf("%w: question position %d out of range 1-%d", domain.ErrNotFound, questionPosition, len(s.snapshot.Questions))
	}
	if s.state != domain.StateAnswerShow {
		return domain.QuestionResult{}, fmt.Errorf("%w: session %d is not showing answers", domain.ErrInvalidState, s.id)
	}
	if questionPosition != s.atQuestion {
		return domain.QuestionResult{}, fmt.Errorf("%w: question %d is not the current question", domain.ErrInvalidState, questionPosition)
	}
	return s.results[questionPosition], nil
}

// computeFinalResultsLocked ranks players by total score descending; ties keep
// join order. Called once, on the transition into FINAL_RESULTS.
func (s *Session) computeFinalResultsLocked() *domain.FinalResults {
	ranked := make([]domain.RankedPlayer, len(s.players))
	for i, p := range s.players {
		ranked[i] = domain.RankedPlayer{Name: p.name, Score: p.score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return &domain.FinalResults{
		UsersRankedByScore: ranked,
		UpdatedAt:          time.Now(),
	}
}

// FinalResults returns the session-wide ranking once the session has reached
// FINAL_RESULTS.
func (s *Session) FinalResults() (domain.FinalResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateFinalResults || s.final == nil {
		return domain.FinalResults{}, fmt.Errorf("%w: session %d has no final results yet", domain.ErrInvalidState, s.id)
	}
	return *s.final, nil
}

// PlayerScore reports a player's running total; used by transports to echo
// scores back after a submission.
func (s *Session) PlayerScore(playerID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerLocked(playerID)
	if p == nil {
		return 0, fmt.Errorf("%w: player %d not in session %d", domain.ErrNotFound, playerID, s.id)
	}
	return p.score, nil
}
