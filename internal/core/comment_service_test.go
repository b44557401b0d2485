package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strive-backend-go/internal/models"
	"strive-backend-go/internal/testutil"
)

func TestCommentService(t *testing.T) {
	f := newChallengeFixture()
	ctx := context.Background()
	postID, err := f.svc.NewChallenge(ctx, &models.Challenge{UID: "bob", Caption: "sunrise"})
	require.NoError(t, err)

	now := time.Now().UTC()
	comments := testutil.NewMemoryCommentRepository(
		&models.Comment{ID: "late", PostID: postID, CreatedAt: now.Add(time.Hour), CommentText: "second"},
		&models.Comment{ID: "early", PostID: postID, CreatedAt: now.Add(-time.Hour), CommentText: "first"},
		&models.Comment{ID: "elsewhere", PostID: "other", CreatedAt: now},
	)
	notifier := &testutil.RecordingNotifier{}
	svc := NewCommentService(comments, f.users, f.svc, notifier, NewActivityService(f.activity), zap.NewNop())

	t.Run("add signs with the author name and notifies the owner", func(t *testing.T) {
		c, err := svc.AddComment(ctx, postID, "alice", "  nice one ")
		require.NoError(t, err)
		assert.Equal(t, "nice one", c.CommentText)
		assert.Equal(t, "Alice", c.UserName)
		assert.Equal(t, postID, c.PostID)
		assert.NotEmpty(t, c.ID)

		sent := notifier.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, models.NotificationComment, sent[0].Kind)
		assert.Equal(t, []string{"bob"}, sent[0].RecipientIDs)
	})

	t.Run("owner commenting does not notify", func(t *testing.T) {
		_, err := svc.AddComment(ctx, postID, "bob", "thanks")
		require.NoError(t, err)
		assert.Len(t, notifier.Sent(), 1)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.AddComment(ctx, postID, "alice", " ")
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = svc.AddComment(ctx, "missing", "alice", "hi")
		assert.ErrorIs(t, err, ErrChallengeNotFound)
		_, err = svc.AddComment(ctx, postID, "ghost", "hi")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("listed oldest first", func(t *testing.T) {
		list, err := svc.GetCommentsOf(ctx, postID)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "early", list[0].ID)
		assert.Equal(t, "late", list[3].ID)
	})
}
