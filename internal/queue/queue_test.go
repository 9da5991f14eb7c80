package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/invite-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)

	// one adapter per test, the registry is keyed by name
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

func testConfig(name string) QueueConfig {
	return QueueConfig{
		Name:              name,
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      50 * time.Millisecond,
		BatchSize:         10,
	}
}

type saleLike struct {
	EventID string `json:"event_id"`
	Amount  int64  `json:"amount"`
}

func TestQueue_PublishAndConsume(t *testing.T) {
	_, adapter := setupTestRedis(t)
	q, err := NewQueue(adapter, testConfig("test:sales"))
	require.NoError(t, err)
	defer q.Stop(time.Second)

	ctx := context.Background()
	_, err = q.PublishJSON(ctx, saleLike{EventID: "evt-1", Amount: 4500}, map[string]string{"event_id": "evt-1"})
	require.NoError(t, err)

	received := make(chan *Message, 1)
	require.NoError(t, q.Consume(func(ctx context.Context, msg *Message) error {
		received <- msg
		return nil
	}))

	select {
	case msg := <-received:
		var got saleLike
		require.NoError(t, msg.Decode(&got))
		assert.Equal(t, saleLike{EventID: "evt-1", Amount: 4500}, got)
		assert.Equal(t, "evt-1", msg.Metadata["event_id"])
		assert.Equal(t, int64(1), msg.Attempts)
		assert.False(t, msg.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}

	assert.Eventually(t, func() bool {
		stats, err := q.GetStats(ctx)
		return err == nil && stats.PendingMessages == 0
	}, 2*time.Second, 50*time.Millisecond, "successful handler acks the entry")
}

func TestQueue_NewQueueIsIdempotent(t *testing.T) {
	_, adapter := setupTestRedis(t)

	first, err := NewQueue(adapter, testConfig("test:group"))
	require.NoError(t, err)
	defer first.Stop(time.Second)

	second, err := NewQueue(adapter, testConfig("test:group"))
	require.NoError(t, err, "existing consumer group is reused")
	defer second.Stop(time.Second)

	_, err = NewQueue(adapter, QueueConfig{})
	assert.Error(t, err)
}

func TestQueue_RetryAfterVisibilityTimeout(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := testConfig("test:retry")
	cfg.VisibilityTimeout = 100 * time.Millisecond
	q, err := NewQueue(adapter, cfg)
	require.NoError(t, err)
	defer q.Stop(time.Second)

	ctx := context.Background()
	_, err = q.Publish(ctx, []byte(`{"event_id":"evt-retry"}`), nil)
	require.NoError(t, err)

	var calls atomic.Int32
	succeeded := make(chan int64, 1)
	require.NoError(t, q.Consume(func(ctx context.Context, msg *Message) error {
		if calls.Add(1) == 1 {
			return assert.AnError
		}
		succeeded <- msg.Attempts
		return nil
	}))

	select {
	case attempts := <-succeeded:
		assert.GreaterOrEqual(t, attempts, int64(2))
	case <-time.After(3 * time.Second):
		t.Fatal("message was not redelivered")
	}
}

func TestQueue_FailedMessageRedeliveredOnce(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := testConfig("test:redeliver")
	cfg.VisibilityTimeout = 100 * time.Millisecond
	q, err := NewQueue(adapter, cfg)
	require.NoError(t, err)
	defer q.Stop(time.Second)

	ctx := context.Background()
	for _, id := range []string{"evt-a", "evt-b", "evt-c"} {
		_, err := q.PublishJSON(ctx, saleLike{EventID: id, Amount: 2500}, map[string]string{"event_id": id})
		require.NoError(t, err)
	}

	var mu sync.Mutex
	seen := make(map[string][]int64)
	require.NoError(t, q.Consume(func(ctx context.Context, msg *Message) error {
		id := msg.Metadata["event_id"]
		mu.Lock()
		seen[id] = append(seen[id], msg.Attempts)
		n := len(seen[id])
		mu.Unlock()
		if id == "evt-b" && n == 1 {
			return assert.AnError
		}
		return nil
	}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen["evt-b"]) == 2
	}, 3*time.Second, 20*time.Millisecond)

	// give a spurious third delivery time to show up
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1}, seen["evt-a"])
	assert.Equal(t, []int64{1, 2}, seen["evt-b"])
	assert.Equal(t, []int64{1}, seen["evt-c"])

	stats, err := q.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingMessages)
}

func TestQueue_DeadLetter(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := testConfig("test:dlq")
	cfg.MaxRetries = 2
	cfg.VisibilityTimeout = 100 * time.Millisecond
	cfg.EnableDLQ = true
	q, err := NewQueue(adapter, cfg)
	require.NoError(t, err)
	defer q.Stop(time.Second)

	ctx := context.Background()
	_, err = q.Publish(ctx, []byte(`{"event_id":"evt-poison"}`), map[string]string{"event_id": "evt-poison"})
	require.NoError(t, err)

	var calls atomic.Int32
	require.NoError(t, q.Consume(func(ctx context.Context, msg *Message) error {
		calls.Add(1)
		return assert.AnError
	}))

	assert.Eventually(t, func() bool {
		n, err := adapter.XLen(ctx, "test:dlq:dlq")
		return err == nil && n == 1
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())

	stats, err := q.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingMessages)
}

func TestMessage_AckNack(t *testing.T) {
	_, adapter := setupTestRedis(t)
	q, err := NewQueue(adapter, testConfig("test:ack"))
	require.NoError(t, err)
	defer q.Stop(time.Second)
	ctx := context.Background()

	t.Run("ack", func(t *testing.T) {
		id, err := q.Publish(ctx, []byte(`{}`), nil)
		require.NoError(t, err)

		msg := &Message{ID: id, queue: q}
		assert.NoError(t, msg.Ack(ctx))
		assert.ErrorIs(t, msg.Ack(ctx), ErrAlreadyAcked)
		assert.ErrorIs(t, msg.Nack(), ErrAlreadyAcked)
	})

	t.Run("nack", func(t *testing.T) {
		msg := &Message{ID: "0-1", queue: q}
		assert.NoError(t, msg.Nack())
		assert.ErrorIs(t, msg.Nack(), ErrAlreadyNacked)
		assert.ErrorIs(t, msg.Ack(ctx), ErrAlreadyNacked)
	})
}

func TestQueue_ConcurrentPublish(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := testConfig("test:concurrent")
	cfg.MaxLen = 1000
	q, err := NewQueue(adapter, cfg)
	require.NoError(t, err)
	defer q.Stop(time.Second)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := q.PublishJSON(ctx, saleLike{Amount: int64(i)}, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats, err := q.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalMessages)
}

func TestQueue_Stop(t *testing.T) {
	_, adapter := setupTestRedis(t)
	q, err := NewQueue(adapter, testConfig("test:stop"))
	require.NoError(t, err)

	require.NoError(t, q.Consume(func(ctx context.Context, msg *Message) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	}))
	assert.NoError(t, q.Stop(2*time.Second))
	assert.Error(t, q.Consume(nil))
}
