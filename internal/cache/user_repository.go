package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

const userKeyPrefix = "user:"

// UserRepository is a read-through cache in front of a db.UserRepository.
// Cache failures are logged and fall back to the wrapped repository.
type UserRepository struct {
	next   db.UserRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

var _ db.UserRepository = (*UserRepository)(nil)

// NewUserRepository wraps next with cache-aside reads keyed by "user:<uid>".
func NewUserRepository(next db.UserRepository, c Cache, ttl time.Duration, logger *zap.Logger) *UserRepository {
	return &UserRepository{next: next, cache: c, ttl: ttl, logger: logger}
}

func userKey(uid string) string {
	return userKeyPrefix + uid
}

func (r *UserRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	if user, ok := r.lookup(ctx, uid); ok {
		return user, nil
	}
	user, err := r.next.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *UserRepository) GetMany(ctx context.Context, uids []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(uids))
	var missing []string
	found := make(map[string]*models.User, len(uids))
	for _, uid := range uids {
		if user, ok := r.lookup(ctx, uid); ok {
			found[uid] = user
		} else {
			missing = append(missing, uid)
		}
	}

	if len(missing) > 0 {
		fetched, err := r.next.GetMany(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, user := range fetched {
			found[user.UID] = user
			r.store(ctx, user)
		}
	}

	for _, uid := range uids {
		if user, ok := found[uid]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

// List always reads through; full scans are not cached.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.next.List(ctx)
}

func (r *UserRepository) Set(ctx context.Context, user *models.User) error {
	if err := r.next.Set(ctx, user); err != nil {
		return err
	}
	r.invalidate(ctx, user.UID)
	return nil
}

func (r *UserRepository) Merge(ctx context.Context, uid string, fields map[string]interface{}) error {
	if err := r.next.Merge(ctx, uid, fields); err != nil {
		return err
	}
	r.invalidate(ctx, uid)
	return nil
}

func (r *UserRepository) AddGroup(ctx context.Context, uid, gid string) error {
	if err := r.next.AddGroup(ctx, uid, gid); err != nil {
		return err
	}
	r.invalidate(ctx, uid)
	return nil
}

func (r *UserRepository) lookup(ctx context.Context, uid string) (*models.User, bool) {
	if uid == "" {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, userKey(uid))
	if err != nil {
		r.logger.Warn("User cache read failed", zap.String("uid", uid), zap.Error(err))
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		r.logger.Warn("Discarding corrupt user cache entry", zap.String("uid", uid), zap.Error(err))
		r.invalidate(ctx, uid)
		return nil, false
	}
	return &user, true
}

func (r *UserRepository) store(ctx context.Context, user *models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		r.logger.Warn("Failed to encode user for cache", zap.String("uid", user.UID), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, userKey(user.UID), raw, r.ttl); err != nil {
		r.logger.Warn("User cache write failed", zap.String("uid", user.UID), zap.Error(err))
	}
}

func (r *UserRepository) invalidate(ctx context.Context, uid string) {
	if err := r.cache.Delete(ctx, userKey(uid)); err != nil {
		r.logger.Warn("User cache invalidation failed", zap.String("uid", uid), zap.Error(err))
	}
}
