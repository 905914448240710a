package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/pkg/platform/backoff"
	"orrery/pkg/platform/sentinel"
)

var errFlaky = errors.New("broker hiccup")

func fastRetry(attempts int) backoff.Policy {
	return backoff.Policy{
		Initial:     time.Millisecond,
		Max:         2 * time.Millisecond,
		Multiplier:  2,
		MaxAttempts: attempts,
	}
}

func testClient(cfg Config, produce produceFn) *Client {
	c := newClient(cfg, slog.New(slog.DiscardHandler))
	c.produce = produce
	return c
}

// flakySink fails the first failures attempts for every record, then
// accepts everything, recording successful deliveries.
type flakySink struct {
	mu        sync.Mutex
	failures  int
	attempts  map[string]int
	delivered []Record
}

func newFlakySink(failures int) *flakySink {
	return &flakySink{failures: failures, attempts: make(map[string]int)}
}

func (f *flakySink) produce(_ context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[rec.Key]++
	if f.attempts[rec.Key] <= f.failures {
		return errFlaky
	}
	f.delivered = append(f.delivered, rec)
	return nil
}

func (f *flakySink) deliveredKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.delivered))
	for _, rec := range f.delivered {
		keys = append(keys, rec.Key)
	}
	return keys
}

func TestClient_DeliversInOrder(t *testing.T) {
	sink := newFlakySink(0)
	c := testClient(Config{Retry: fastRetry(3)}, sink.produce)

	go func() { _ = c.Run() }()

	for _, key := range []string{"mercury", "venus", "earth"} {
		require.NoError(t, c.Enqueue(context.Background(), Record{
			Topic: "planet-positions", Key: key, Value: []byte("{}"),
		}))
	}
	require.NoError(t, c.Close(context.Background()))

	assert.Equal(t, []string{"mercury", "venus", "earth"}, sink.deliveredKeys())
}

func TestClient_RetriesWithinBudgetSucceed(t *testing.T) {
	// 2 transient failures, budget of 4 attempts: the 3rd attempt lands
	// and no delivery failure is raised.
	sink := newFlakySink(2)
	c := testClient(Config{Retry: fastRetry(4)}, sink.produce)

	go func() { _ = c.Run() }()

	require.NoError(t, c.Enqueue(context.Background(), Record{Key: "probe"}))
	require.NoError(t, c.Close(context.Background()))

	assert.Equal(t, []string{"probe"}, sink.deliveredKeys())
	sink.mu.Lock()
	assert.Equal(t, 3, sink.attempts["probe"])
	sink.mu.Unlock()
}

func TestClient_ExhaustedBudgetFailsOncePerRecord(t *testing.T) {
	var attempts atomic.Int64
	c := testClient(Config{Retry: fastRetry(3)}, func(context.Context, Record) error {
		attempts.Add(1)
		return errFlaky
	})

	err := c.deliver(context.Background(), Record{Key: "lost"})
	assert.ErrorIs(t, err, sentinel.ErrDeliveryFailed)
	assert.Equal(t, int64(3), attempts.Load(), "full budget spent on the record")

	// Through the worker both records still cost the full budget each.
	go func() { _ = c.Run() }()
	require.NoError(t, c.Enqueue(context.Background(), Record{Key: "lost-1"}))
	require.NoError(t, c.Enqueue(context.Background(), Record{Key: "lost-2"}))
	require.NoError(t, c.Close(context.Background()))

	assert.Equal(t, int64(9), attempts.Load())
}

func TestClient_DropPolicyNeverBlocks(t *testing.T) {
	block := make(chan struct{})
	c := testClient(Config{
		QueueSize: 1,
		Policy:    PolicyDrop,
		Retry:     fastRetry(1),
	}, func(ctx context.Context, _ Record) error {
		<-block
		return nil
	})

	go func() { _ = c.Run() }()

	// First record is picked up by the worker and parks on the sink; the
	// second fills the queue; the third must be rejected immediately.
	require.NoError(t, c.Enqueue(context.Background(), Record{Key: "a"}))
	require.Eventually(t, func() bool { return len(c.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, c.Enqueue(context.Background(), Record{Key: "b"}))

	start := time.Now()
	err := c.Enqueue(context.Background(), Record{Key: "c"})
	assert.ErrorIs(t, err, sentinel.ErrQueueFull)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(block)
	require.NoError(t, c.Close(context.Background()))
}

func TestClient_BlockPolicyHonorsContext(t *testing.T) {
	c := testClient(Config{QueueSize: 1, Retry: fastRetry(1)}, nil)

	// No worker running: the queue stays full.
	require.NoError(t, c.Enqueue(context.Background(), Record{Key: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Enqueue(ctx, Record{Key: "b"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_CloseDrainsQueue(t *testing.T) {
	sink := newFlakySink(0)
	c := testClient(Config{QueueSize: 64, Retry: fastRetry(2)}, sink.produce)

	for i := range 20 {
		require.NoError(t, c.Enqueue(context.Background(), Record{
			Key: string(rune('a' + i)),
		}))
	}

	// Worker starts only now; Close must still wait for the backlog.
	go func() { _ = c.Run() }()
	require.NoError(t, c.Close(context.Background()))

	assert.Len(t, sink.deliveredKeys(), 20, "all queued records delivered on close")
}

func TestClient_CloseFlushesDespiteCancelledCallers(t *testing.T) {
	// A stop signal cancels every caller context before the drain begins;
	// records already queued must still reach a healthy broker.
	var delivered atomic.Int64
	release := make(chan struct{})
	c := testClient(Config{QueueSize: 8, Retry: fastRetry(2)}, func(context.Context, Record) error {
		<-release
		delivered.Add(1)
		return nil
	})

	go func() { _ = c.Run() }()

	runCtx, cancel := context.WithCancel(context.Background())
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, c.Enqueue(runCtx, Record{Key: key}))
	}
	cancel()
	close(release)

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, int64(5), delivered.Load(), "every queued record flushed")
}

func TestClient_CloseUnblocksPendingEnqueue(t *testing.T) {
	// No worker: the queue stays full and the second enqueue parks.
	c := testClient(Config{
		QueueSize:    1,
		Retry:        fastRetry(1),
		DrainTimeout: 20 * time.Millisecond,
	}, nil)

	require.NoError(t, c.Enqueue(context.Background(), Record{Key: "a"}))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Enqueue(context.Background(), Record{Key: "b"}) }()
	time.Sleep(10 * time.Millisecond)

	closeErr := make(chan error, 1)
	go func() { closeErr <- c.Close(context.Background()) }()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	case <-time.After(time.Second):
		t.Fatal("enqueue still parked after close")
	}
	assert.Error(t, <-closeErr, "nothing drained the queue")
}

func TestClient_EnqueueAfterCloseFails(t *testing.T) {
	c := testClient(Config{Retry: fastRetry(1)}, func(context.Context, Record) error { return nil })
	go func() { _ = c.Run() }()
	require.NoError(t, c.Close(context.Background()))

	err := c.Enqueue(context.Background(), Record{Key: "late"})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestClient_CancelDuringBackoffReportsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := testClient(Config{
		Retry: backoff.Policy{
			Initial: time.Hour, Max: time.Hour, Multiplier: 2, MaxAttempts: 5,
		},
	}, func(context.Context, Record) error { return errFlaky })

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.deliver(ctx, Record{Key: "stuck"})
	}()

	// Cancellation must be observable within the current backoff wait.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, sentinel.ErrDeliveryFailed)
	case <-time.After(time.Second):
		t.Fatal("deliver did not observe cancellation during backoff")
	}
}
