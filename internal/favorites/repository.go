package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/redisx"
)

// Repository persists one favorites set per user.
type Repository interface {
	Load(ctx context.Context, userID string) (Set, error)
	Save(ctx context.Context, userID string, set Set) error
}

const keyPrefix = "favorites:"

func Key(userID string) string { return keyPrefix + userID }

// RedisRepository stores each set as a JSON array under favorites:<userID>.
type RedisRepository struct {
	Redis  *redisx.Client
	Logger logger.Logger
}

func NewRedisRepository(rc *redisx.Client, log logger.Logger) *RedisRepository {
	return &RedisRepository{Redis: rc, Logger: log}
}

// Load returns an empty set for a missing or malformed payload. A malformed
// payload is logged and will be overwritten by the next Save.
func (r *RedisRepository) Load(ctx context.Context, userID string) (Set, error) {
	raw, err := r.Redis.Get(ctx, Key(userID))
	if errors.Is(err, redisx.ErrMiss) {
		return NewSet(), nil
	}
	if err != nil {
		return Set{}, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		r.Logger.Warn("resetting malformed favorites payload", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return NewSet(), nil
	}
	return NewSet(ids...), nil
}

func (r *RedisRepository) Save(ctx context.Context, userID string, set Set) error {
	b, err := json.Marshal(set.IDs())
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, Key(userID), string(b), 0)
}

// MemoryRepository keeps sets in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	sets map[string][]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sets: map[string][]string{}}
}

func (m *MemoryRepository) Load(_ context.Context, userID string) (Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NewSet(m.sets[userID]...), nil
}

func (m *MemoryRepository) Save(_ context.Context, userID string, set Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[userID] = set.IDs()
	return nil
}
