package domain

import (
	"fmt"
	"time"
)

// State is a session lifecycle state.
type State string

const (
	StateLobby             State = "LOBBY"
	StateQuestionCountdown State = "QUESTION_COUNTDOWN"
	StateQuestionOpen      State = "QUESTION_OPEN"
	StateQuestionClose     State = "QUESTION_CLOSE"
	StateAnswerShow        State = "ANSWER_SHOW"
	StateFinalResults      State = "FINAL_RESULTS"
	StateEnd               State = "END"
)

// Action is an operator-issued command advancing session state.
type Action string

const (
	ActionNextQuestion     Action = "NEXT_QUESTION"
	ActionSkipCountdown    Action = "SKIP_COUNTDOWN"
	ActionGoToAnswer       Action = "GO_TO_ANSWER"
	ActionGoToFinalResults Action = "GO_TO_FINAL_RESULTS"
	ActionEnd              Action = "END"
)

// KnownAction reports whether name is one of the recognized operator actions.
func KnownAction(name string) bool {
	switch Action(name) {
	case ActionNextQuestion, ActionSkipCountdown, ActionGoToAnswer, ActionGoToFinalResults, ActionEnd:
		return true
	}
	return false
}

// Answer is one selectable option of a question. Colour is assigned when the
// question is authored and stays stable for the question's lifetime.
type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Colour  string `json:"colour"`
}

// Question models an MCQ question; one or more answers may be correct.
type Question struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Duration int      `json:"duration"` // seconds the question stays open
	Points   int      `json:"points"`   // 1..10
	Answers  []Answer `json:"answers"`
}

// Quiz is the authored content a session is started from.
type Quiz struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
	CreatedAt    int64      `json:"createdAt,omitempty"`
	UpdatedAt    int64      `json:"updatedAt,omitempty"`
	Questions    []Question `json:"questions"`
}

// MaxQuizDurationSeconds caps the summed duration of all questions in a quiz.
// Enforced at authoring/loading time; sessions trust their snapshot.
const MaxQuizDurationSeconds = 180

// Validate checks authoring-time constraints on quiz content.
func (q Quiz) Validate() error {
	total := 0
	for _, question := range q.Questions {
		if question.Duration < 0 {
			return fmt.Errorf("%w: question %q has negative duration", ErrInvalidInput, question.ID)
		}
		if question.Points < 1 || question.Points > 10 {
			return fmt.Errorf("%w: question %q points must be 1-10", ErrInvalidInput, question.ID)
		}
		correct := 0
		for _, a := range question.Answers {
			if a.Correct {
				correct++
			}
		}
		if correct == 0 {
			return fmt.Errorf("%w: question %q has no correct answer", ErrInvalidInput, question.ID)
		}
		total += question.Duration
	}
	if total > MaxQuizDurationSeconds {
		return fmt.Errorf("%w: quiz duration %ds exceeds %ds", ErrInvalidInput, total, MaxQuizDurationSeconds)
	}
	return nil
}

// Snapshot is the immutable copy of quiz content a session runs against.
// Built once at session start; nothing mutates it afterwards.
type Snapshot struct {
	QuizID       string
	Name         string
	Description  string
	ThumbnailURL string
	CreatedAt    int64
	UpdatedAt    int64
	Questions    []Question
}

// SnapshotOf deep-copies quiz content so later edits to the live quiz never
// leak into a running session.
func SnapshotOf(quiz Quiz) Snapshot {
	questions := make([]Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		answers := make([]Answer, len(q.Answers))
		copy(answers, q.Answers)
		q.Answers = answers
		questions[i] = q
	}
	return Snapshot{
		QuizID:       quiz.ID,
		Name:         quiz.Name,
		Description:  quiz.Description,
		ThumbnailURL: quiz.ThumbnailURL,
		CreatedAt:    quiz.CreatedAt,
		UpdatedAt:    quiz.UpdatedAt,
		Questions:    questions,
	}
}

// SessionStatus is the operator view of a running session.
type SessionStatus struct {
	SessionID  int      `json:"sessionId"`
	State      State    `json:"state"`
	AtQuestion int      `json:"atQuestion"`
	Players    []string `json:"players"`
	Metadata   Metadata `json:"metadata"`
}

// Metadata echoes the snapshot's quiz descriptors.
type Metadata struct {
	QuizID       string `json:"quizId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	NumQuestions int    `json:"numQuestions"`
}

// SessionList splits a quiz's sessions by liveness, both sorted ascending.
type SessionList struct {
	ActiveSessions   []int `json:"activeSessions"`
	InactiveSessions []int `json:"inactiveSessions"`
}

// PlayerStatus is the player view of their session.
type PlayerStatus struct {
	State        State `json:"state"`
	NumQuestions int   `json:"numQuestions"`
	AtQuestion   int   `json:"atQuestion"`
}

// QuestionResult is the frozen per-question outcome revealed in ANSWER_SHOW.
// AverageAnswerTime is the mean position of this question within each correct
// player's answered-order list, not a wall-clock latency.
type QuestionResult struct {
	QuestionID         string   `json:"questionId"`
	PlayersCorrectList []string `json:"playersCorrectList"`
	AverageAnswerTime  int      `json:"averageAnswerTime"`
	PercentCorrect     int      `json:"percentCorrect"`
}

// RankedPlayer is one row of the final scoreboard.
type RankedPlayer struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// FinalResults orders players by score descending, ties broken by join order.
type FinalResults struct {
	UsersRankedByScore []RankedPlayer `json:"usersRankedByScore"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}
