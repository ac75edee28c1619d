// Package redis holds the redis-backed question-set cache. Generated
// sets are shared between hosting machines pointing at the same redis,
// so one expensive AI generation serves every host of that topic until
// the TTL runs out.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"quizlive-client/internal/domain"
)

// SetCache stores each question set as a JSON blob under
// quiz:sets:{topic}:{difficulty}.
type SetCache struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

func NewSetCache(client *redis.Client, ttl time.Duration) *SetCache {
	return &SetCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SetCache) Get(ctx context.Context, topic, difficulty string) ([]domain.AuthoredQuestion, error) {
	raw, err := s.client.Get(ctx, s.key(topic, difficulty)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question set: %w", err)
	}
	var questions []domain.AuthoredQuestion
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	return questions, nil
}

func (s *SetCache) Put(ctx context.Context, topic, difficulty string, questions []domain.AuthoredQuestion) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	if err := s.client.Set(ctx, s.key(topic, difficulty), raw, s.ttlWithJitter()).Err(); err != nil {
		return fmt.Errorf("store question set: %w", err)
	}
	return nil
}

func (s *SetCache) key(topic, difficulty string) string {
	return "quiz:sets:" + topic + ":" + difficulty
}

func (s *SetCache) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
