package flash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flash:"

// RedisStore keeps messages in redis under a random id and reads them with
// GETDEL, so each one is handed out once even across server instances.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Put(ctx context.Context, msg Message, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode flash message: %w", err)
	}

	id := uuid.NewString()
	if err := s.rdb.Set(ctx, redisKeyPrefix+id, payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store flash message: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Take(ctx context.Context, token string) (Message, bool, error) {
	if _, err := uuid.Parse(token); err != nil {
		return Message{}, false, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	payload, err := s.rdb.GetDel(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, fmt.Errorf("failed to take flash message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, false, fmt.Errorf("failed to decode flash message: %w", err)
	}
	return msg, true, nil
}
