package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strive-backend-go/internal/models"
	"strive-backend-go/internal/testutil"
)

type fakePublisher struct {
	batches [][]expo.PushMessage
	status  string
	err     error
}

func (p *fakePublisher) PublishMultiple(messages []expo.PushMessage) ([]expo.PushResponse, error) {
	p.batches = append(p.batches, append([]expo.PushMessage{}, messages...))
	if p.err != nil {
		return nil, p.err
	}
	responses := make([]expo.PushResponse, len(messages))
	for i := range messages {
		responses[i] = expo.PushResponse{PushMessage: messages[i], Status: p.status}
	}
	return responses, nil
}

func (p *fakePublisher) messages() []expo.PushMessage {
	var out []expo.PushMessage
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func newUsers() *testutil.MemoryUserRepository {
	return testutil.NewMemoryUserRepository(
		&models.User{UID: "alice", ExpoPushToken: "ExponentPushToken[alice]"},
		&models.User{UID: "bob", ExpoPushToken: "ExponentPushToken[bob]"},
		&models.User{UID: "carol", ExpoPushToken: "garbage"},
		&models.User{UID: "dave"},
	)
}

func TestExpoNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes to valid tokens except the sender", func(t *testing.T) {
		pub := &fakePublisher{status: "ok"}
		n := NewExpoNotifier(newUsers(), pub, zap.NewNop())

		err := n.Notify(ctx, models.Notification{
			Kind:         models.NotificationComment,
			SenderID:     "alice",
			RecipientIDs: []string{"alice", "bob", "carol", "dave", "bob"},
			Title:        "t",
			Body:         "b",
			Data:         map[string]string{"challenge_id": "c1"},
		})
		require.NoError(t, err)
		msgs := pub.messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, []expo.ExponentPushToken{"ExponentPushToken[bob]"}, msgs[0].To)
		assert.Equal(t, "comment", msgs[0].Data["category"])
		assert.Equal(t, "c1", msgs[0].Data["challenge_id"])
	})

	t.Run("one message per device", func(t *testing.T) {
		pub := &fakePublisher{status: "ok"}
		n := NewExpoNotifier(newUsers(), pub, zap.NewNop())

		require.NoError(t, n.Notify(ctx, models.Notification{
			Kind:         models.NotificationChallengeEnded,
			RecipientIDs: []string{"alice", "bob", "carol", "dave"},
		}))
		require.Len(t, pub.batches, 1)
		msgs := pub.batches[0]
		require.Len(t, msgs, 2)
		for _, m := range msgs {
			assert.Len(t, m.To, 1)
		}
		assert.Equal(t, expo.ExponentPushToken("ExponentPushToken[alice]"), msgs[0].To[0])
		assert.Equal(t, expo.ExponentPushToken("ExponentPushToken[bob]"), msgs[1].To[0])
	})

	t.Run("large audiences are split into batches", func(t *testing.T) {
		var users []*models.User
		var ids []string
		for i := 0; i < 2*maxPushBatch+5; i++ {
			uid := fmt.Sprintf("user-%d", i)
			users = append(users, &models.User{UID: uid, ExpoPushToken: fmt.Sprintf("ExponentPushToken[%d]", i)})
			ids = append(ids, uid)
		}
		pub := &fakePublisher{status: "ok"}
		n := NewExpoNotifier(testutil.NewMemoryUserRepository(users...), pub, zap.NewNop())

		require.NoError(t, n.Notify(ctx, models.Notification{Kind: models.NotificationChallengeEnded, RecipientIDs: ids}))
		require.Len(t, pub.batches, 3)
		assert.Len(t, pub.batches[0], maxPushBatch)
		assert.Len(t, pub.batches[1], maxPushBatch)
		assert.Len(t, pub.batches[2], 5)
	})

	t.Run("nothing to send", func(t *testing.T) {
		pub := &fakePublisher{status: "ok"}
		n := NewExpoNotifier(newUsers(), pub, zap.NewNop())
		require.NoError(t, n.Notify(ctx, models.Notification{RecipientIDs: []string{"dave"}}))
		require.NoError(t, n.Notify(ctx, models.Notification{SenderID: "bob", RecipientIDs: []string{"bob"}}))
		assert.Empty(t, pub.batches)
	})

	t.Run("publish errors are returned", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("network")}
		n := NewExpoNotifier(newUsers(), pub, zap.NewNop())
		assert.Error(t, n.Notify(ctx, models.Notification{RecipientIDs: []string{"bob"}}))
	})

	t.Run("rejected responses are returned", func(t *testing.T) {
		pub := &fakePublisher{status: "error"}
		n := NewExpoNotifier(newUsers(), pub, zap.NewNop())
		assert.Error(t, n.Notify(ctx, models.Notification{RecipientIDs: []string{"bob"}}))
	})
}

type memoryQueue struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{messages: make(map[string][][]byte)}
}

func (q *memoryQueue) Publish(queueName string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.messages[queueName] = append(q.messages[queueName], body)
	return nil
}

func (q *memoryQueue) Consume(_ context.Context, queueName string, handler func(body []byte) error) error {
	q.mu.Lock()
	pending := q.messages[queueName]
	q.messages[queueName] = nil
	q.mu.Unlock()
	for _, body := range pending {
		_ = handler(body)
	}
	return nil
}

func (q *memoryQueue) Close() error { return nil }

func TestQueueNotifierAndConsumer(t *testing.T) {
	ctx := context.Background()
	mq := newMemoryQueue()
	queued := NewQueueNotifier(mq, "notifications")

	n := models.Notification{Kind: models.NotificationFriendRequest, SenderID: "alice", RecipientIDs: []string{"bob"}, Title: "hi"}
	require.NoError(t, queued.Notify(ctx, n))
	require.Len(t, mq.messages["notifications"], 1)

	var decoded models.Notification
	require.NoError(t, json.Unmarshal(mq.messages["notifications"][0], &decoded))
	assert.Equal(t, n, decoded)

	target := &testutil.RecordingNotifier{}
	consumer := NewConsumer(mq, "notifications", target, zap.NewNop())
	require.NoError(t, consumer.Run(ctx))
	assert.Equal(t, []models.Notification{n}, target.Sent())

	assert.Error(t, consumer.Handle(ctx, []byte("{not json")))

	mq.err = errors.New("broker down")
	assert.Error(t, queued.Notify(ctx, n))
}
