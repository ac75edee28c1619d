package cli

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"quizlive-client/internal/api"
	"quizlive-client/internal/config"
	"quizlive-client/internal/domain"
	"quizlive-client/internal/infra/memory"
	redisinfra "quizlive-client/internal/infra/redis"
)

const (
	defaultAPIURL    = "http://localhost:5000"
	defaultSocketURL = "ws://localhost:5000/ws"

	defaultSetTTL     = 30 * time.Minute
	defaultCatalogTTL = 10 * time.Minute
)

// QuestionSetStore caches generated question sets per (topic,
// difficulty) so hosting does not re-pay for AI generation.
type QuestionSetStore interface {
	Get(ctx context.Context, topic, difficulty string) ([]domain.AuthoredQuestion, error)
	Put(ctx context.Context, topic, difficulty string, questions []domain.AuthoredQuestion) error
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func apiURL(cfg config.Config) string {
	if cfg.Server.APIURL != "" {
		return cfg.Server.APIURL
	}
	return defaultAPIURL
}

func socketURL(cfg config.Config) string {
	if cfg.Server.SocketURL != "" {
		return cfg.Server.SocketURL
	}
	return defaultSocketURL
}

func newAPIClient(cfg config.Config) *api.Client {
	return api.NewClient(apiURL(cfg), cfg.Identity.Token)
}

// identity resolves the local player. Without a configured identity the
// client plays anonymously under a fresh random uid.
func identity(cfg config.Config) (uid, displayName string) {
	uid = cfg.Identity.UID
	if uid == "" {
		uid = uuid.NewString()
	}
	displayName = cfg.Identity.DisplayName
	if displayName == "" {
		displayName = "player-" + uid[:8]
	}
	return uid, displayName
}

// newSetStore picks redis when configured, in-process memory otherwise.
func newSetStore(cfg config.Config) QuestionSetStore {
	ttl := config.TTLDuration(cfg.Redis.TTL, defaultSetTTL)
	if cfg.Redis.Addr == "" {
		return memory.NewSetCache(ttl)
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Debug().Str("addr", cfg.Redis.Addr).Msg("using redis question-set cache")
	return redisinfra.NewSetCache(client, ttl)
}
