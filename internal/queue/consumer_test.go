package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
	err  error
}

func (h *recordingHandler) Handle(_ context.Context, msg redis.XMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, msg.Values["type"].(string))
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func setup(t *testing.T, handler MessageHandler) (*Consumer, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewConsumer(client, "learnhub:tasks", "workers", "worker-1", time.Minute, zerolog.Nop(), handler)
	c.block = 50 * time.Millisecond
	return c, client
}

func TestEnsureGroupIsIdempotent(t *testing.T) {
	c, _ := setup(t, &recordingHandler{})
	ctx := context.Background()

	require.NoError(t, c.EnsureGroup(ctx))
	require.NoError(t, c.EnsureGroup(ctx))
}

func TestConsumerHandlesAndAcks(t *testing.T) {
	handler := &recordingHandler{}
	c, client := setup(t, handler)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.EnsureGroup(ctx))
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: "learnhub:tasks",
		Values: map[string]any{"type": "notifications.sweep"},
	}).Err())

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return handler.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		pending, err := client.XPending(context.Background(), "learnhub:tasks", "workers").Result()
		return err == nil && pending.Count == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestFailedMessagesStayPending(t *testing.T) {
	handler := &recordingHandler{err: errors.New("boom")}
	c, client := setup(t, handler)
	ctx := context.Background()

	require.NoError(t, c.EnsureGroup(ctx))
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: "learnhub:tasks",
		Values: map[string]any{"type": "notifications.sweep"},
	}).Err())

	require.NoError(t, c.read(ctx))
	assert.Equal(t, 1, handler.count())

	pending, err := client.XPending(ctx, "learnhub:tasks", "workers").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending.Count)
}
