package app_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"quizhost-service/internal/domain"
)

func TestJoinNameUniquePerSession(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	first, err := service.StartSession(ctx, ownerID, quizID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := service.StartSession(ctx, ownerID, quizID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := service.Join(ctx, first, "Hayden"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Join(ctx, first, "Hayden"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected duplicate name rejection, got %v", err)
	}
	// The same name is free in a different session.
	if _, err := service.Join(ctx, second, "Hayden"); err != nil {
		t.Fatalf("join other session: %v", err)
	}
}

func TestGeneratedNames(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	sessionID, err := service.StartSession(ctx, ownerID, quizID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	pattern := regexp.MustCompile(`^[a-z]{5}[0-9]{3}$`)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		playerID, err := service.Join(ctx, sessionID, "")
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		status, err := service.GetSession(ctx, ownerID, quizID, sessionID)
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		name := status.Players[len(status.Players)-1]
		if !pattern.MatchString(name) {
			t.Fatalf("generated name %q does not match 5 letters + 3 digits", name)
		}
		if seen[name] {
			t.Fatalf("generated name %q repeated in session", name)
		}
		seen[name] = true
		if playerID != i+1 {
			t.Fatalf("expected monotonic player id %d, got %d", i+1, playerID)
		}
	}
}

func TestJoinRequiresLobby(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	sessionID, err := service.StartSession(ctx, ownerID, quizID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	mustApply(t, service, sessionID, "NEXT_QUESTION")

	if _, err := service.Join(ctx, sessionID, "Late"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state joining outside lobby, got %v", err)
	}
	if _, err := service.Join(ctx, 999, "Ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown session, got %v", err)
	}
	if _, err := service.PlayerStatus(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown player, got %v", err)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	ctx := context.Background()
	service, _, timers := newTestService(t)

	sessionID, err := service.StartSession(ctx, ownerID, quiz2ID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	apply := func(action string) {
		t.Helper()
		if err := service.ApplyAction(ctx, ownerID, quiz2ID, sessionID, action); err != nil {
			t.Fatalf("apply %s: %v", action, err)
		}
	}
	playerID, err := service.Join(ctx, sessionID, "Hayden")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	// Nothing is open yet.
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b1"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state in lobby, got %v", err)
	}

	apply("NEXT_QUESTION")
	apply("SKIP_COUNTDOWN")

	if err := service.SubmitAnswer(ctx, 999, 1, []string{"b1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown player, got %v", err)
	}
	if err := service.SubmitAnswer(ctx, playerID, 3, []string{"b1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for position out of range, got %v", err)
	}
	if err := service.SubmitAnswer(ctx, playerID, 2, []string{"c1"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state answering a future question, got %v", err)
	}
	if err := service.SubmitAnswer(ctx, playerID, 1, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty answer set, got %v", err)
	}
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b1", "b1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for duplicate ids, got %v", err)
	}
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b1", "c1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for foreign id, got %v", err)
	}

	// Move to question 2; question 1 stops accepting answers.
	timers.last().fire()
	apply("NEXT_QUESTION")
	apply("SKIP_COUNTDOWN")
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b1", "b2"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state answering a closed question, got %v", err)
	}
}

func TestResubmissionNeverDoubleCounts(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	sessionID, err := service.StartSession(ctx, ownerID, quiz2ID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	apply := func(action string) {
		t.Helper()
		if err := service.ApplyAction(ctx, ownerID, quiz2ID, sessionID, action); err != nil {
			t.Fatalf("apply %s: %v", action, err)
		}
	}
	playerID, err := service.Join(ctx, sessionID, "Hayden")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	apply("NEXT_QUESTION")
	apply("SKIP_COUNTDOWN")

	score := func() int {
		t.Helper()
		s, err := service.PlayerScore(ctx, playerID)
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		return s
	}

	// Correct, then wrong, then correct again: the running total always
	// reflects only the latest submission.
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b1", "b2"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := score(); got != 5 {
		t.Fatalf("expected 5 after correct submit, got %d", got)
	}
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b3"}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got := score(); got != 0 {
		t.Fatalf("expected 0 after wrong resubmit, got %d", got)
	}
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b2", "b1"}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got := score(); got != 5 {
		t.Fatalf("expected 5 after correct resubmit, got %d", got)
	}
}

func TestPartialAnswerSetScoresNothing(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	sessionID, err := service.StartSession(ctx, ownerID, quiz2ID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	playerID, err := service.Join(ctx, sessionID, "Hayden")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	for _, action := range []string{"NEXT_QUESTION", "SKIP_COUNTDOWN"} {
		if err := service.ApplyAction(ctx, ownerID, quiz2ID, sessionID, action); err != nil {
			t.Fatalf("apply %s: %v", action, err)
		}
	}

	// b1 alone is a strict subset of the correct set {b1, b2}: no credit.
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if score, _ := service.PlayerScore(ctx, playerID); score != 0 {
		t.Fatalf("expected no credit for partial answer, got %d", score)
	}

	// Superset (a wrong answer on top of the correct set) also fails.
	if err := service.SubmitAnswer(ctx, playerID, 1, []string{"b1", "b2", "b3"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if score, _ := service.PlayerScore(ctx, playerID); score != 0 {
		t.Fatalf("expected no credit for superset answer, got %d", score)
	}
}
