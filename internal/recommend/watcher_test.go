package recommend

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type reloads struct {
	mu   sync.Mutex
	errs []error
}

func (r *reloads) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *reloads) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func (r *reloads) last() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs[len(r.errs)-1]
}

func startWatcher(t *testing.T, h *Holder, src Source, seen *reloads) {
	t.Helper()
	w := NewWatcher(h, src, zaptest.NewLogger(t),
		WithDebounce(50*time.Millisecond),
		WithReloadHook(seen.record))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	// let the watch register before the test writes
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_ReloadsCatalog(t *testing.T) {
	src := writeFixtures(t, t.TempDir(), 4)
	initial, err := src.Load()
	require.NoError(t, err)
	h := NewHolder(initial)

	seen := &reloads{}
	startWatcher(t, h, src, seen)

	require.NoError(t, os.WriteFile(src.CatalogPath,
		[]byte(catalogCSV(4, "Cloud Intern,Acme,IT,\"['Cloud']\",College,Pune,6,20000")), 0644))

	require.Eventually(t, func() bool { return h.Load().Catalog().Len() == 13 }, 5*time.Second, 20*time.Millisecond)
	assert.NotSame(t, initial, h.Load())
	assert.True(t, h.Load().Available())
}

func TestWatcher_KeepsPreviousOnFailure(t *testing.T) {
	src := writeFixtures(t, t.TempDir(), 4)
	initial, err := src.Load()
	require.NoError(t, err)
	h := NewHolder(initial)

	seen := &reloads{}
	startWatcher(t, h, src, seen)

	require.NoError(t, os.WriteFile(src.ModelPath, []byte("not json"), 0644))

	require.Eventually(t, func() bool { return seen.count() > 0 }, 5*time.Second, 20*time.Millisecond)
	assert.Error(t, seen.last())
	assert.Same(t, initial, h.Load())
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	src := writeFixtures(t, dir, 4)
	h := NewHolder(nil)

	seen := &reloads{}
	startWatcher(t, h, src, seen)

	require.NoError(t, os.WriteFile(dir+"/notes.txt", []byte("hello"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, seen.count())
	assert.Nil(t, h.Load())
}
