package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/n-kyan/microsoft-auth/internal/models"
)

const deviceSessionKeyPrefix = "calendar:device_session:"

// MemoryDeviceSessionRepository tracks issued device codes in process memory.
// Expired entries are dropped lazily on access.
type MemoryDeviceSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemoryDeviceSessionRepository constructs an empty tracker.
func NewMemoryDeviceSessionRepository() *MemoryDeviceSessionRepository {
	return &MemoryDeviceSessionRepository{sessions: make(map[string]time.Time), now: time.Now}
}

// Save records the session until its provider expiry.
func (r *MemoryDeviceSessionRepository) Save(_ context.Context, session models.DeviceFlowSession) error {
	if session.DeviceCode == "" {
		return fmt.Errorf("device code required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for code, expiresAt := range r.sessions {
		if !now.Before(expiresAt) {
			delete(r.sessions, code)
		}
	}
	r.sessions[session.DeviceCode] = sessionExpiry(session, now)
	return nil
}

// Exists reports whether the code was issued and has not expired.
func (r *MemoryDeviceSessionRepository) Exists(_ context.Context, deviceCode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt, ok := r.sessions[deviceCode]
	if !ok {
		return false, nil
	}
	if !r.now().Before(expiresAt) {
		delete(r.sessions, deviceCode)
		return false, nil
	}
	return true, nil
}

// Delete forgets the code.
func (r *MemoryDeviceSessionRepository) Delete(_ context.Context, deviceCode string) error {
	r.mu.Lock()
	delete(r.sessions, deviceCode)
	r.mu.Unlock()
	return nil
}

// RedisDeviceSessionRepository tracks issued device codes as Redis keys whose TTL
// matches the provider expiry. Keys hold a digest of the code, never the code.
type RedisDeviceSessionRepository struct {
	client *redis.Client
}

// NewRedisDeviceSessionRepository constructs the tracker.
func NewRedisDeviceSessionRepository(client *redis.Client) *RedisDeviceSessionRepository {
	return &RedisDeviceSessionRepository{client: client}
}

// Save records the session with a TTL.
func (r *RedisDeviceSessionRepository) Save(ctx context.Context, session models.DeviceFlowSession) error {
	if session.DeviceCode == "" {
		return fmt.Errorf("device code required")
	}
	now := time.Now()
	ttl := sessionExpiry(session, now).Sub(now)
	if ttl <= 0 {
		return nil
	}
	key := deviceSessionKey(session.DeviceCode)
	if err := r.client.Set(ctx, key, session.UserCode, ttl).Err(); err != nil {
		return fmt.Errorf("redis set device session: %w", err)
	}
	return nil
}

// Exists reports whether the code is still tracked.
func (r *RedisDeviceSessionRepository) Exists(ctx context.Context, deviceCode string) (bool, error) {
	n, err := r.client.Exists(ctx, deviceSessionKey(deviceCode)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("redis exists device session: %w", err)
	}
	return n > 0, nil
}

// Delete forgets the code.
func (r *RedisDeviceSessionRepository) Delete(ctx context.Context, deviceCode string) error {
	if err := r.client.Del(ctx, deviceSessionKey(deviceCode)).Err(); err != nil {
		return fmt.Errorf("redis delete device session: %w", err)
	}
	return nil
}

func deviceSessionKey(deviceCode string) string {
	sum := sha256.Sum256([]byte(deviceCode))
	return deviceSessionKeyPrefix + hex.EncodeToString(sum[:])
}

// sessionExpiry falls back to fifteen minutes, the provider's usual device code
// lifetime, when the session carries no expiry.
func sessionExpiry(session models.DeviceFlowSession, now time.Time) time.Time {
	switch {
	case !session.ExpiresAt.IsZero():
		return session.ExpiresAt
	case session.ExpiresIn > 0:
		return now.Add(time.Duration(session.ExpiresIn) * time.Second)
	default:
		return now.Add(15 * time.Minute)
	}
}
