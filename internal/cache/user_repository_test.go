package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strive-backend-go/internal/models"
	"strive-backend-go/internal/testutil"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	return c.entries[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	switch v := value.(type) {
	case []byte:
		c.entries[key] = string(v)
	case string:
		c.entries[key] = v
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) Close() error { return nil }

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func TestUserRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewMemoryUserRepository(&models.User{UID: "ada", Name: "Ada Lovelace", Friends: []string{"bob"}})
	mc := newMemoryCache()
	repo := NewUserRepository(backing, mc, time.Minute, zap.NewNop())

	user, err := repo.GetByID(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.True(t, mc.has("user:ada"))

	// Served from cache even when the backing store fails.
	backing.Err = errors.New("firestore down")
	cached, err := repo.GetByID(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, cached.Friends)
}

func TestUserRepository_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewMemoryUserRepository(&models.User{UID: "ada", Name: "Ada Lovelace"})
	mc := newMemoryCache()
	repo := NewUserRepository(backing, mc, time.Minute, zap.NewNop())

	_, err := repo.GetByID(ctx, "ada")
	require.NoError(t, err)

	require.NoError(t, repo.Merge(ctx, "ada", map[string]interface{}{"name": "Ada King"}))
	assert.False(t, mc.has("user:ada"))

	user, err := repo.GetByID(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada King", user.Name)

	require.NoError(t, repo.AddGroup(ctx, "ada", "group-1"))
	assert.False(t, mc.has("user:ada"))
}

func TestUserRepository_GetManyMixesHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewMemoryUserRepository(
		&models.User{UID: "ada", Name: "Ada Lovelace"},
		&models.User{UID: "bob", Name: "Bob Smith"},
	)
	mc := newMemoryCache()
	repo := NewUserRepository(backing, mc, time.Minute, zap.NewNop())

	_, err := repo.GetByID(ctx, "bob")
	require.NoError(t, err)

	users, err := repo.GetMany(ctx, []string{"ada", "ghost", "bob"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada", users[0].UID)
	assert.Equal(t, "bob", users[1].UID)
	assert.True(t, mc.has("user:ada"))
}

func TestUserRepository_CacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewMemoryUserRepository(&models.User{UID: "ada", Name: "Ada Lovelace"})
	mc := newMemoryCache()
	mc.err = errors.New("redis unavailable")
	repo := NewUserRepository(backing, mc, time.Minute, zap.NewNop())

	user, err := repo.GetByID(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
}

func TestUserRepository_CorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewMemoryUserRepository(&models.User{UID: "ada", Name: "Ada Lovelace"})
	mc := newMemoryCache()
	mc.entries["user:ada"] = "{not json"
	repo := NewUserRepository(backing, mc, time.Minute, zap.NewNop())

	user, err := repo.GetByID(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
}
