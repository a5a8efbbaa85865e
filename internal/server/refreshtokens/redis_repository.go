package refreshtokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/cashbackhub/internal/server/models"
)

const keyPrefix = "refresh:"

// RedisRepository keeps each token under its own key with a TTL, so expired
// tokens vanish without a sweeper.
type RedisRepository struct {
	client *redis.Client
}

type redisRecord struct {
	UserID  string    `json:"user_id"`
	Expires time.Time `json:"expires"`
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	rec, err := json.Marshal(redisRecord{UserID: userID, Expires: time.Now().Add(validity)})
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, keyPrefix+token, rec, validity).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	raw, err := r.client.Get(ctx, keyPrefix+token).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("read refresh token: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode refresh token: %w", err)
	}
	return &models.RefreshToken{UserID: rec.UserID, Token: token, Expires: rec.Expires}, nil
}

func (r *RedisRepository) Delete(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Del(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
