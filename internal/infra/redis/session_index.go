package redis

import (
	"context"
	"strconv"
	"time"

	"quizhost-service/internal/app"
	"quizhost-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
)

// SessionIndex is a Redis-aware app.SessionRepository.
// Notes:
//   - Authoritative session state stays in the process (the embedded memory
//     store); a session's serialization domain cannot span processes.
//   - Redis carries a liveness key per session so operators and sibling
//     instances can see which sessions a host is running.
//   - For true distribution you'd pair this with pub/sub projection of
//     session status.
type SessionIndex struct {
	*memory.SessionStore
	client *redis.Client
	ttl    time.Duration
}

func NewSessionIndex(client *redis.Client, ttl time.Duration) *SessionIndex {
	return &SessionIndex{
		SessionStore: memory.NewSessionStore(),
		client:       client,
		ttl:          ttl,
	}
}

func (s *SessionIndex) Add(session *app.Session) {
	s.SessionStore.Add(session)
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.QuizID(), s.ttl).Err()
}

// SessionEnded drops the liveness marker once a session reaches END.
// Implements app.SessionEndObserver.
func (s *SessionIndex) SessionEnded(sessionID int) {
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionIndex) key(sessionID int) string {
	return "session:live:" + strconv.Itoa(sessionID)
}
