package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chartdash/internal/testutil"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T, cfg RegistryConfig) *Registry {
	t.Helper()
	cfg.Logger = testutil.NewTestLogger(t)
	r, err := NewRegistry(cfg)
	require.NoError(t, err)
	return r
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := newTestRegistry(t, RegistryConfig{})

	w := r.Create()
	require.NotEmpty(t, w.ID())

	got, ok := r.Get(w.ID())
	require.True(t, ok)
	assert.Same(t, w, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	other := r.GetOrCreate("missing")
	assert.NotEqual(t, w.ID(), other.ID())
	assert.Same(t, w, r.GetOrCreate(w.ID()))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := newTestRegistry(t, RegistryConfig{TTL: time.Minute, Now: clock.Now})

	stale := r.Create()
	held := r.Create()
	held.Acquire()

	clock.Advance(45 * time.Second)
	fresh := r.Create()

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, r.Sweep())

	_, ok := r.Get(stale.ID())
	assert.False(t, ok, "idle workspace should be evicted")
	_, ok = r.Get(held.ID())
	assert.True(t, ok, "held workspace should survive")
	_, ok = r.Get(fresh.ID())
	assert.True(t, ok, "recently used workspace should survive")

	held.Release()
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, r.Sweep())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_RunSweeperStopsOnCancel(t *testing.T) {
	r := newTestRegistry(t, RegistryConfig{TTL: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.RunSweeper(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRegistry_Seed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.csv")
	require.NoError(t, os.WriteFile(path, []byte(cityCSV), 0600))

	rec := &recorder{}
	r := newTestRegistry(t, RegistryConfig{SeedPath: path, Notifier: rec})

	seeded := r.Create()
	s := seeded.Snapshot()
	assert.True(t, s.Seeded)
	assert.Equal(t, "seed.csv", s.Filename)
	assert.Equal(t, []string{"city", "pop"}, s.XOptions)

	own := r.Create()
	own.Upload(payload("a,b\n1,2\n"), "mine.csv")

	require.NoError(t, os.WriteFile(path, []byte("region,sales\nN,1\n"), 0600))
	require.NoError(t, r.Reseed())

	assert.Equal(t, []string{"region", "sales"}, seeded.Snapshot().XOptions)
	assert.Equal(t, []string{"a", "b"}, own.Snapshot().XOptions, "user uploads are not replaced")

	fresh := r.Create()
	assert.Equal(t, []string{"region", "sales"}, fresh.Snapshot().XOptions)
}

func TestRegistry_MissingSeed(t *testing.T) {
	_, err := NewRegistry(RegistryConfig{SeedPath: filepath.Join(t.TempDir(), "nope.csv")})
	assert.Error(t, err)
}

func TestRegistry_WatchSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.csv")
	require.NoError(t, os.WriteFile(path, []byte(cityCSV), 0600))

	r := newTestRegistry(t, RegistryConfig{SeedPath: path})
	w := r.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.WatchSeed(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("k,v\nx,1\n"), 0600))

	assert.Eventually(t, func() bool {
		opts := w.Snapshot().XOptions
		return len(opts) == 2 && opts[0] == "k"
	}, 2*time.Second, 20*time.Millisecond)
}
