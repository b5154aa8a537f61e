package profile

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	apperrors "podcast-insights/backend/pkg/errors"
	"podcast-insights/backend/pkg/logger"
)

// DefaultMemoryStoreSize is used when a MemoryStore is created without a size
const DefaultMemoryStoreSize = 10000

// Store persists profiles by user ID. Get returns a NotFound error for
// unknown users.
type Store interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Put(ctx context.Context, p *UserProfile) error
}

// MemoryStore keeps the most recently used profiles in process memory.
// Profiles past the size bound are evicted and start over empty.
type MemoryStore struct {
	cache     *lru.Cache[string, *UserProfile]
	evictions atomic.Int64
	logger    *zap.Logger
}

// NewMemoryStore creates a store holding up to size profiles
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemoryStoreSize
	}
	m := &MemoryStore{logger: logger.Named("profile")}
	m.cache, _ = lru.NewWithEvict[string, *UserProfile](size, m.handleEviction)
	return m
}

func (m *MemoryStore) handleEviction(userID string, _ *UserProfile) {
	m.evictions.Add(1)
	m.logger.Debug("Profile evicted", zap.String("user_id", userID))
}

// Get returns a copy of the stored profile
func (m *MemoryStore) Get(ctx context.Context, userID string) (*UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextCancelled("get profile", err)
	}
	p, ok := m.cache.Get(userID)
	if !ok {
		return nil, apperrors.NewNotFound("profile", userID)
	}
	return p.Clone(), nil
}

// Put stores a copy of p
func (m *MemoryStore) Put(ctx context.Context, p *UserProfile) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewContextCancelled("put profile", err)
	}
	m.cache.Add(p.UserID, p.Clone())
	return nil
}

// Len returns the number of stored profiles
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Evictions returns how many profiles were pushed out by the size bound
func (m *MemoryStore) Evictions() int64 {
	return m.evictions.Load()
}
