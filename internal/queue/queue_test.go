package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueFIFOAndFull(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(2)

	require.NoError(t, q.Enqueue(ctx, Job{RunID: "run_1"}))
	require.NoError(t, q.Enqueue(ctx, Job{RunID: "run_2"}))
	assert.ErrorIs(t, q.Enqueue(ctx, Job{RunID: "run_3"}), ErrQueueFull)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run_1", job.RunID)
}

func TestMemoryQueueDequeueHonoursContextAndClose(t *testing.T) {
	q := NewMemoryQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, q.Close())
	_, err = q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{RunID: "x"}), ErrClosed)
}

func newRedisQueue(t *testing.T, maxLen int) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisQueue(client, "feedback:runs", maxLen)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := newRedisQueue(t, 0)

	require.NoError(t, q.Enqueue(ctx, Job{RunID: "run_a"}))
	require.NoError(t, q.Enqueue(ctx, Job{RunID: "run_b"}))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run_a", "run_b"}, []string{first.RunID, second.RunID})
}

func TestRedisQueueBounded(t *testing.T) {
	ctx := context.Background()
	q := newRedisQueue(t, 1)

	require.NoError(t, q.Enqueue(ctx, Job{RunID: "run_a"}))
	assert.ErrorIs(t, q.Enqueue(ctx, Job{RunID: "run_b"}), ErrQueueFull)
}

func TestRedisQueueDequeueCancelled(t *testing.T) {
	q := newRedisQueue(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
