package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quizhost-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// querier is the subset of pgxpool.Pool the loader needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// QuizLoader reads quiz content from the quiz CRUD service's Postgres
// database. The row carries the verified owner plus the question list as
// JSONB; a session start is the only reader. Content is validated on load, so
// sessions never snapshot a quiz the authoring rules would have rejected.
type QuizLoader struct {
	pool querier
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var ownerID string
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT owner_id, data FROM quizzes WHERE id=$1`, quizID).Scan(&ownerID, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %s", domain.ErrNotFound, quizID)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.ID = quizID
	quiz.OwnerID = ownerID
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz %s: %w", quizID, err)
	}
	return quiz, nil
}
