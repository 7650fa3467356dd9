package persistence_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/julianstephens/habitual/internal/persistence"
	"github.com/julianstephens/habitual/internal/persistence/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedBackend blocks every call until release is closed.
type gatedBackend struct {
	*memory.Backend
	release chan struct{}
	mu      sync.Mutex
	order   []string
}

func newGated() *gatedBackend {
	return &gatedBackend{Backend: memory.New(), release: make(chan struct{})}
}

func (g *gatedBackend) Set(ctx context.Context, key, value string) error {
	<-g.release
	g.mu.Lock()
	g.order = append(g.order, key+"="+value)
	g.mu.Unlock()
	return g.Backend.Set(ctx, key, value)
}

type failingBackend struct {
	*memory.Backend
}

func (failingBackend) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestSyncAdapterRoundTrip(t *testing.T) {
	a := persistence.NewSync(memory.New())
	defer a.Close()

	ctx := context.Background()
	res := a.Set("k", "v")
	select {
	case <-res.Done():
	default:
		t.Fatal("sync Set should complete before returning")
	}

	v, found, err := a.Get("k").Wait(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	_, _, err = a.Remove("k").Wait(ctx)
	require.NoError(t, err)
	_, found, err = a.Get("k").Wait(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSyncAdapterPropagatesErrors(t *testing.T) {
	a := persistence.NewSync(failingBackend{memory.New()})
	defer a.Close()

	_, _, err := a.Set("k", "v").Wait(context.Background())
	assert.EqualError(t, err, "disk full")
}

func TestAsyncAdapterDoesNotBlockCaller(t *testing.T) {
	g := newGated()
	a := persistence.NewAsync(g)

	res := a.Set("k", "v")
	select {
	case <-res.Done():
		t.Fatal("async Set should still be pending")
	default:
	}

	close(g.release)
	_, _, err := res.Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Close())

	v, ok := g.Value("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestAsyncAdapterPreservesOrder(t *testing.T) {
	g := newGated()
	a := persistence.NewAsync(g, persistence.WithQueueSize(16))

	for i := 0; i < 5; i++ {
		a.Set("k", fmt.Sprintf("%d", i))
	}
	close(g.release)
	require.NoError(t, a.Close())

	assert.Equal(t, []string{"k=0", "k=1", "k=2", "k=3", "k=4"}, g.order)
	v, _ := g.Value("k")
	assert.Equal(t, "4", v)
}

func TestAsyncAdapterQueueGrowsPastCapacity(t *testing.T) {
	g := newGated()
	a := persistence.NewAsync(g, persistence.WithQueueSize(2))

	const n = 100
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i := 0; i < n; i++ {
			a.Set("k", fmt.Sprintf("%d", i))
		}
	}()

	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Set blocked while the backend was stalled")
	}

	close(g.release)
	require.NoError(t, a.Close())

	require.Len(t, g.order, n)
	for i, got := range g.order {
		assert.Equal(t, fmt.Sprintf("k=%d", i), got)
	}
}

func TestAsyncAdapterCloseDrainsAndRejects(t *testing.T) {
	g := newGated()
	a := persistence.NewAsync(g)

	pending := a.Set("k", "v")
	closed := make(chan error, 1)
	go func() { closed <- a.Close() }()

	close(g.release)
	require.NoError(t, <-closed)

	select {
	case <-pending.Done():
	case <-time.After(time.Second):
		t.Fatal("queued write was not drained")
	}

	_, _, err := a.Set("k", "again").Wait(context.Background())
	assert.ErrorIs(t, err, persistence.ErrClosed)
	assert.NoError(t, a.Close())
}

func TestResultWaitHonoursContext(t *testing.T) {
	g := newGated()
	a := persistence.NewAsync(g)
	defer func() {
		close(g.release)
		_ = a.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err := a.Set("k", "v").Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResultThen(t *testing.T) {
	done := make(chan error, 1)
	persistence.Completed("", false, errors.New("boom")).Then(func(_ string, _ bool, err error) {
		done <- err
	})
	assert.EqualError(t, <-done, "boom")

	g := newGated()
	a := persistence.NewAsync(g)
	a.Set("k", "v").Then(func(_ string, _ bool, err error) {
		done <- err
	})
	close(g.release)
	assert.NoError(t, <-done)
	require.NoError(t, a.Close())
}
