// Package testutil provides in-memory implementations of the repositories and
// external collaborators for tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Groups = append([]string(nil), u.Groups...)
	c.Friends = append([]string(nil), u.Friends...)
	c.UserRequestedFriends = append([]string(nil), u.UserRequestedFriends...)
	c.FriendsRequestedUser = append([]string(nil), u.FriendsRequestedUser...)
	return &c
}

func addUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

// MemoryUserRepository is a mutex-guarded in-memory db.UserRepository.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
	order []string
	// Err, when set, is returned by every call.
	Err error
}

var _ db.UserRepository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository returns a repository seeded with users.
func NewMemoryUserRepository(users ...*models.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]*models.User)}
	for _, u := range users {
		r.put(u)
	}
	return r
}

func (r *MemoryUserRepository) put(u *models.User) {
	if _, ok := r.users[u.UID]; !ok {
		r.order = append(r.order, u.UID)
	}
	r.users[u.UID] = cloneUser(u)
}

// Get returns a copy of the stored user or nil.
func (r *MemoryUserRepository) Get(uid string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

func (r *MemoryUserRepository) GetByID(_ context.Context, uid string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[uid]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", uid, db.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) GetMany(_ context.Context, uids []string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*models.User, 0, len(uids))
	for _, uid := range uids {
		if u, ok := r.users[uid]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*models.User, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, cloneUser(r.users[uid]))
	}
	return out, nil
}

func (r *MemoryUserRepository) Set(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.put(user)
	return nil
}

// Merge supports the top-level fields the services write.
func (r *MemoryUserRepository) Merge(_ context.Context, uid string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[uid]
	if !ok {
		u = &models.User{UID: uid}
		r.users[uid] = u
		r.order = append(r.order, uid)
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "image_id":
			u.ImageID = v.(string)
		case "expoPushToken":
			u.ExpoPushToken = v.(string)
		case "email":
			u.Email = v.(string)
		default:
			return fmt.Errorf("MemoryUserRepository.Merge: unsupported field %q", k)
		}
	}
	return nil
}

func (r *MemoryUserRepository) AddGroup(_ context.Context, uid, gid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[uid]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", uid, db.ErrNotFound)
	}
	u.Groups = addUnique(u.Groups, gid)
	return nil
}

// MemoryChallengeRepository is an in-memory db.ChallengeRepository.
type MemoryChallengeRepository struct {
	mu         sync.Mutex
	challenges map[string]*models.Challenge
	order      []string
	seq        int
}

var _ db.ChallengeRepository = (*MemoryChallengeRepository)(nil)

// NewMemoryChallengeRepository returns a repository seeded with challenges.
// Seeded challenges without an ID get one assigned.
func NewMemoryChallengeRepository(challenges ...*models.Challenge) *MemoryChallengeRepository {
	r := &MemoryChallengeRepository{challenges: make(map[string]*models.Challenge)}
	for _, c := range challenges {
		if c.ID == "" {
			c.ID = r.nextID()
		}
		r.put(c)
	}
	return r
}

func (r *MemoryChallengeRepository) nextID() string {
	r.seq++
	return fmt.Sprintf("challenge-%d", r.seq)
}

func (r *MemoryChallengeRepository) put(c *models.Challenge) {
	if _, ok := r.challenges[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	cp := *c
	cp.Likes = append([]string(nil), c.Likes...)
	r.challenges[c.ID] = &cp
}

func (r *MemoryChallengeRepository) get(id string) *models.Challenge {
	c := *r.challenges[id]
	c.Likes = append([]string(nil), r.challenges[id].Likes...)
	return &c
}

func (r *MemoryChallengeRepository) Create(_ context.Context, challenge *models.Challenge) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge.ID = r.nextID()
	if challenge.Likes == nil {
		challenge.Likes = []string{}
	}
	r.put(challenge)
	return challenge.ID, nil
}

func (r *MemoryChallengeRepository) GetByID(_ context.Context, id string) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.challenges[id]; !ok {
		return nil, fmt.Errorf("challenge with ID '%s' not found: %w", id, db.ErrNotFound)
	}
	return r.get(id), nil
}

func (r *MemoryChallengeRepository) filter(keep func(*models.Challenge) bool) []*models.Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Challenge{}
	for _, id := range r.order {
		if keep(r.challenges[id]) {
			out = append(out, r.get(id))
		}
	}
	return out
}

func (r *MemoryChallengeRepository) ListByUser(_ context.Context, uid string) ([]*models.Challenge, error) {
	return r.filter(func(c *models.Challenge) bool { return c.UID == uid }), nil
}

func (r *MemoryChallengeRepository) ListByTitle(_ context.Context, title string) ([]*models.Challenge, error) {
	return r.filter(func(c *models.Challenge) bool { return c.ChallengeDescription == title }), nil
}

func (r *MemoryChallengeRepository) ListByGroup(_ context.Context, gid string) ([]*models.Challenge, error) {
	return r.filter(func(c *models.Challenge) bool { return c.GroupID == gid }), nil
}

func (r *MemoryChallengeRepository) List(_ context.Context, limit int) ([]*models.Challenge, error) {
	all := r.filter(func(*models.Challenge) bool { return true })
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryChallengeRepository) SetLikes(_ context.Context, id string, likes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		// A merge write creates the document.
		c = &models.Challenge{ID: id}
		r.challenges[id] = c
		r.order = append(r.order, id)
	}
	c.Likes = append([]string{}, likes...)
	return nil
}

func (r *MemoryChallengeRepository) AddLike(_ context.Context, id, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return fmt.Errorf("challenge with ID '%s' not found: %w", id, db.ErrNotFound)
	}
	c.Likes = addUnique(c.Likes, uid)
	return nil
}

func (r *MemoryChallengeRepository) RemoveLike(_ context.Context, id, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return fmt.Errorf("challenge with ID '%s' not found: %w", id, db.ErrNotFound)
	}
	c.Likes = models.RemoveID(c.Likes, uid)
	return nil
}

// MemoryCommentRepository is an in-memory db.CommentRepository.
type MemoryCommentRepository struct {
	mu       sync.Mutex
	comments []*models.Comment
}

var _ db.CommentRepository = (*MemoryCommentRepository)(nil)

// NewMemoryCommentRepository returns a repository seeded with comments.
func NewMemoryCommentRepository(comments ...*models.Comment) *MemoryCommentRepository {
	r := &MemoryCommentRepository{}
	for _, c := range comments {
		cp := *c
		r.comments = append(r.comments, &cp)
	}
	return r
}

func (r *MemoryCommentRepository) Create(_ context.Context, comment *models.Comment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = fmt.Sprintf("comment-%d", len(r.comments)+1)
	cp := *comment
	r.comments = append(r.comments, &cp)
	return comment.ID, nil
}

func (r *MemoryCommentRepository) ListByPost(_ context.Context, postID string) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range r.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MemoryGroupRepository is an in-memory db.GroupRepository.
type MemoryGroupRepository struct {
	mu     sync.Mutex
	groups map[string]*models.Group
	order  []string
}

var _ db.GroupRepository = (*MemoryGroupRepository)(nil)

// NewMemoryGroupRepository returns a repository seeded with groups.
func NewMemoryGroupRepository(groups ...*models.Group) *MemoryGroupRepository {
	r := &MemoryGroupRepository{groups: make(map[string]*models.Group)}
	for _, g := range groups {
		r.put(g)
	}
	return r
}

func (r *MemoryGroupRepository) put(g *models.Group) {
	if _, ok := r.groups[g.GID]; !ok {
		r.order = append(r.order, g.GID)
	}
	cp := *g
	cp.Members = append([]string(nil), g.Members...)
	r.groups[g.GID] = &cp
}

func (r *MemoryGroupRepository) get(gid string) *models.Group {
	g := *r.groups[gid]
	g.Members = append([]string(nil), r.groups[gid].Members...)
	return &g
}

// Get returns a copy of the stored group or nil.
func (r *MemoryGroupRepository) Get(gid string) *models.Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[gid]; !ok {
		return nil
	}
	return r.get(gid)
}

func (r *MemoryGroupRepository) Create(_ context.Context, group *models.Group) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group.GID = fmt.Sprintf("group-%d", len(r.order)+1)
	r.put(group)
	return group.GID, nil
}

func (r *MemoryGroupRepository) GetByID(_ context.Context, gid string) (*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[gid]; !ok {
		return nil, fmt.Errorf("group with ID '%s' not found: %w", gid, db.ErrNotFound)
	}
	return r.get(gid), nil
}

func (r *MemoryGroupRepository) GetMany(_ context.Context, gids []string) ([]*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Group, 0, len(gids))
	for _, gid := range gids {
		if _, ok := r.groups[gid]; ok {
			out = append(out, r.get(gid))
		}
	}
	return out, nil
}

func (r *MemoryGroupRepository) List(_ context.Context) ([]*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Group, 0, len(r.order))
	for _, gid := range r.order {
		out = append(out, r.get(gid))
	}
	return out, nil
}

func (r *MemoryGroupRepository) SetUpdateDate(_ context.Context, gid string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[gid]
	if !ok {
		return fmt.Errorf("group with ID '%s' not found: %w", gid, db.ErrNotFound)
	}
	g.UpdateDate = t
	return nil
}

func (r *MemoryGroupRepository) AddMember(_ context.Context, gid, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[gid]
	if !ok {
		return fmt.Errorf("group with ID '%s' not found: %w", gid, db.ErrNotFound)
	}
	g.Members = addUnique(g.Members, uid)
	return nil
}

// StaticChallengeDescriptionRepository serves a fixed description.
// A nil Description yields db.ErrNotFound.
type StaticChallengeDescriptionRepository struct {
	mu          sync.Mutex
	Description *models.ChallengeDescription
}

var _ db.ChallengeDescriptionRepository = (*StaticChallengeDescriptionRepository)(nil)

// Replace swaps the served description.
func (r *StaticChallengeDescriptionRepository) Replace(desc *models.ChallengeDescription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Description = desc
}

func (r *StaticChallengeDescriptionRepository) Current(_ context.Context) (*models.ChallengeDescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Description == nil {
		return nil, fmt.Errorf("no challenge description: %w", db.ErrNotFound)
	}
	d := *r.Description
	return &d, nil
}

// MemoryActivityRepository records activity log entries.
type MemoryActivityRepository struct {
	mu      sync.Mutex
	entries []models.ActivityLog
	Err     error
}

var _ db.ActivityRepository = (*MemoryActivityRepository)(nil)

func (r *MemoryActivityRepository) Create(_ context.Context, entry models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.entries = append(r.entries, entry)
	return nil
}

// Actions returns the recorded actions, sorted.
func (r *MemoryActivityRepository) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	sort.Strings(out)
	return out
}
