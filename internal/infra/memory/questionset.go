package memory

import (
	"context"
	"sync"
	"time"

	"quizlive-client/internal/domain"
)

// SetCache keeps generated question sets in process memory, keyed by
// (topic, difficulty), so re-hosting the same topic within the TTL does
// not pay for another AI generation round.
type SetCache struct {
	ttl   time.Duration
	clock func() time.Time

	mu   sync.RWMutex
	sets map[string]cachedSet
}

type cachedSet struct {
	questions []domain.AuthoredQuestion
	expiresAt time.Time
}

func NewSetCache(ttl time.Duration) *SetCache {
	return &SetCache{
		ttl:   ttl,
		clock: time.Now,
		sets:  make(map[string]cachedSet),
	}
}

func (s *SetCache) Get(_ context.Context, topic, difficulty string) ([]domain.AuthoredQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sets[setKey(topic, difficulty)]
	if !ok || !entry.expiresAt.After(s.clock()) {
		return nil, domain.ErrQuestionSetNotFound
	}
	return entry.questions, nil
}

func (s *SetCache) Put(_ context.Context, topic, difficulty string, questions []domain.AuthoredQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[setKey(topic, difficulty)] = cachedSet{
		questions: questions,
		expiresAt: s.clock().Add(s.ttl),
	}
	return nil
}

func setKey(topic, difficulty string) string {
	return topic + "|" + difficulty
}
