package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/n-kyan/microsoft-auth/internal/models"
)

// RedisCredentialRepository stores the token record under a single Redis key.
type RedisCredentialRepository struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisCredentialRepository constructs the repository.
func NewRedisCredentialRepository(client *redis.Client, key string, logger *zap.Logger) *RedisCredentialRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCredentialRepository{client: client, key: key, logger: logger}
}

// Load fetches and decodes the record.
func (r *RedisCredentialRepository) Load(ctx context.Context) *models.TokenRecord {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("credential key unreadable", zap.String("key", r.key), zap.Error(err))
		}
		return nil
	}

	var stored models.StoredToken
	if err := json.Unmarshal(raw, &stored); err != nil {
		r.logger.Warn("credential key malformed", zap.String("key", r.key), zap.Error(err))
		return nil
	}
	record, err := stored.Record()
	if err != nil {
		r.logger.Warn("credential key malformed", zap.String("key", r.key), zap.Error(err))
		return nil
	}
	return recordOrNil(record)
}

// Save overwrites the key. No TTL is set; expiry is judged from the record itself.
func (r *RedisCredentialRepository) Save(ctx context.Context, record models.TokenRecord) error {
	payload, err := json.Marshal(models.NewStoredToken(record))
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
