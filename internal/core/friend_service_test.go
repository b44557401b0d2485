package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strive-backend-go/internal/models"
	"strive-backend-go/internal/testutil"
)

func noShuffle(int, func(i, j int)) {}

func newFriendFixture(opts []FriendServiceOption, users ...*models.User) (FriendService, *testutil.MemoryUserRepository, *testutil.RecordingNotifier, *testutil.MemoryActivityRepository) {
	repo := testutil.NewMemoryUserRepository(users...)
	notifier := &testutil.RecordingNotifier{}
	activity := &testutil.MemoryActivityRepository{}
	opts = append([]FriendServiceOption{WithShuffle(noShuffle)}, opts...)
	svc := NewFriendService(repo, notifier, NewActivityService(activity), zap.NewNop(), opts...)
	return svc, repo, notifier, activity
}

func TestFriendService_RequestAndAccept(t *testing.T) {
	svc, repo, notifier, activity := newFriendFixture(nil,
		&models.User{UID: "alice", Name: "Alice"},
		&models.User{UID: "bob", Name: "Bob"},
	)
	ctx := context.Background()

	require.NoError(t, svc.AddFriend(ctx, "alice", "bob"))
	assert.Equal(t, []string{"bob"}, repo.Get("alice").UserRequestedFriends)
	assert.Equal(t, []string{"alice"}, repo.Get("bob").FriendsRequestedUser)

	// A repeated request does not duplicate entries.
	require.NoError(t, svc.AddFriend(ctx, "alice", "bob"))
	assert.Equal(t, []string{"bob"}, repo.Get("alice").UserRequestedFriends)

	requested, err := svc.IsRequested(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, requested)

	requests, err := svc.GetFriendRequests(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "alice", requests[0].UID)

	require.NoError(t, svc.AcceptFriend(ctx, "bob", "alice"))
	alice, bob := repo.Get("alice"), repo.Get("bob")
	assert.Equal(t, []string{"bob"}, alice.Friends)
	assert.Equal(t, []string{"alice"}, bob.Friends)
	assert.Empty(t, alice.UserRequestedFriends)
	assert.Empty(t, bob.FriendsRequestedUser)

	// Accepting again is a no-op.
	require.NoError(t, svc.AcceptFriend(ctx, "bob", "alice"))
	assert.Equal(t, []string{"alice"}, repo.Get("bob").Friends)

	status, err := svc.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatus{IsFriend: true}, *status)

	// Adding an existing friend is a no-op.
	require.NoError(t, svc.AddFriend(ctx, "alice", "bob"))
	assert.Empty(t, repo.Get("alice").UserRequestedFriends)

	friends, err := svc.GetFriends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].UID)

	sent := notifier.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, models.NotificationFriendRequest, sent[0].Kind)
	assert.Equal(t, []string{"bob"}, sent[0].RecipientIDs)
	assert.Equal(t, models.NotificationFriendAccepted, sent[2].Kind)
	assert.Equal(t, []string{"alice"}, sent[2].RecipientIDs)

	assert.Contains(t, activity.Actions(), models.ActionFriendAccept)
}

func TestFriendService_RejectAndWithdraw(t *testing.T) {
	svc, repo, _, _ := newFriendFixture(nil,
		&models.User{UID: "alice", Name: "Alice"},
		&models.User{UID: "bob", Name: "Bob"},
	)
	ctx := context.Background()

	require.NoError(t, svc.AddFriend(ctx, "alice", "bob"))
	require.NoError(t, svc.RejectFriend(ctx, "bob", "alice"))
	assert.Empty(t, repo.Get("alice").UserRequestedFriends)
	assert.Empty(t, repo.Get("bob").FriendsRequestedUser)
	assert.Empty(t, repo.Get("bob").Friends)

	require.NoError(t, svc.AddFriend(ctx, "alice", "bob"))
	require.NoError(t, svc.RemoveFriendRequest(ctx, "alice", "bob"))
	assert.Empty(t, repo.Get("alice").UserRequestedFriends)
	assert.Empty(t, repo.Get("bob").FriendsRequestedUser)

	requested, err := svc.GetRequestedFriends(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, requested)
}

func TestFriendService_AcceptRequiresPendingRequest(t *testing.T) {
	svc, repo, notifier, _ := newFriendFixture(nil,
		&models.User{UID: "alice", Name: "Alice"},
		&models.User{UID: "bob", Name: "Bob"},
	)
	ctx := context.Background()

	assert.ErrorIs(t, svc.AcceptFriend(ctx, "alice", "bob"), ErrNoPendingRequest)

	// The sender cannot accept their own outgoing request.
	require.NoError(t, svc.AddFriend(ctx, "alice", "bob"))
	assert.ErrorIs(t, svc.AcceptFriend(ctx, "alice", "bob"), ErrNoPendingRequest)

	assert.Empty(t, repo.Get("alice").Friends)
	assert.Empty(t, repo.Get("bob").Friends)
	assert.Equal(t, []string{"alice"}, repo.Get("bob").FriendsRequestedUser)
	assert.Len(t, notifier.Sent(), 1)
}

func TestFriendService_Errors(t *testing.T) {
	svc, _, _, _ := newFriendFixture(nil, &models.User{UID: "alice", Name: "Alice"})
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddFriend(ctx, "alice", "alice"), ErrCannotFriendSelf)
	assert.ErrorIs(t, svc.AddFriend(ctx, "alice", "ghost"), ErrUserNotFound)
	_, err := svc.IsFriend(ctx, "ghost", "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func uids(users []*models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.UID)
	}
	return out
}

func TestFriendService_Suggestions(t *testing.T) {
	users := []*models.User{
		{UID: "me", Name: "Me", Friends: []string{"f1", "f2"}},
		{UID: "f1", Name: "F1", Friends: []string{"me", "fof1", "fof2"}},
		{UID: "f2", Name: "F2", Friends: []string{"me", "fof2", "f1", "fof3"}},
		{UID: "fof1", Name: "FoF1"},
		{UID: "fof2", Name: "FoF2"},
		{UID: "fof3", Name: "FoF3"},
		{UID: "guest", Name: models.GuestName},
		{UID: "r1", Name: "R1"},
		{UID: "r2", Name: "R2"},
	}
	ctx := context.Background()

	t.Run("friends of friends first then padding", func(t *testing.T) {
		svc, _, _, _ := newFriendFixture(nil, users...)
		got, err := svc.GetFriendSuggestions(ctx, "me")
		require.NoError(t, err)
		assert.Equal(t, []string{"fof1", "fof2", "fof3", "r1", "r2"}, uids(got))
	})

	t.Run("cut to the configured count", func(t *testing.T) {
		svc, _, _, _ := newFriendFixture([]FriendServiceOption{WithSuggestionCount(2)}, users...)
		got, err := svc.GetFriendSuggestions(ctx, "me")
		require.NoError(t, err)
		assert.Equal(t, []string{"fof1", "fof2"}, uids(got))
	})

	t.Run("no friends pads with random users", func(t *testing.T) {
		svc, _, _, _ := newFriendFixture(nil, users...)
		got, err := svc.GetFriendSuggestions(ctx, "r1")
		require.NoError(t, err)
		ids := uids(got)
		assert.NotContains(t, ids, "r1")
		assert.NotContains(t, ids, "guest")
		assert.Len(t, ids, 7)
	})

	t.Run("never self friends or guest", func(t *testing.T) {
		svc, _, _, _ := newFriendFixture([]FriendServiceOption{WithShuffle(func(n int, swap func(i, j int)) {
			for i := 0; i < n/2; i++ {
				swap(i, n-1-i)
			}
		})}, users...)
		got, err := svc.GetFriendSuggestions(ctx, "me")
		require.NoError(t, err)
		ids := uids(got)
		for _, banned := range []string{"me", "f1", "f2", "guest"} {
			assert.NotContains(t, ids, banned)
		}
		seen := map[string]bool{}
		for _, id := range ids {
			assert.False(t, seen[id], "duplicate suggestion %s", id)
			seen[id] = true
		}
	})
}
