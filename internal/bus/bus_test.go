package bus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	b := New()
	var got []string
	b.Subscribe(func(n Notification) { got = append(got, "first:"+n.Origin) })
	b.Subscribe(func(n Notification) { got = append(got, "second:"+n.Origin) })

	n := b.Publish("tracker-a")

	assert.Equal(t, uint64(1), n.Revision)
	assert.Equal(t, []string{"first:tracker-a", "second:tracker-a"}, got)
}

func TestRevisionIncreases(t *testing.T) {
	b := New()
	var revisions []uint64
	b.Subscribe(func(n Notification) { revisions = append(revisions, n.Revision) })

	b.Publish("a")
	b.Publish("b")
	b.Publish("a")

	assert.Equal(t, []uint64{1, 2, 3}, revisions)
	assert.Equal(t, uint64(3), b.Revision())
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	calls := 0
	unsubscribe := b.Subscribe(func(Notification) { calls++ })
	b.Publish("a")
	unsubscribe()
	unsubscribe()
	b.Publish("a")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Subscribers())
}

func TestHandlerMaySubscribeDuringPublish(t *testing.T) {
	b := New()
	nested := 0
	b.Subscribe(func(Notification) {
		b.Subscribe(func(Notification) { nested++ })
	})

	require.NotPanics(t, func() { b.Publish("a") })
	assert.Equal(t, 0, nested)
	b.Publish("a")
	assert.Equal(t, 1, nested)
}

type fakeDetector struct {
	mu      sync.Mutex
	changed bool
	err     error
	calls   int
}

func (f *fakeDetector) ExternalChange(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	changed := f.changed
	f.changed = false
	return changed, f.err
}

func (f *fakeDetector) set(changed bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = changed
	f.err = err
}

func (f *fakeDetector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestWatcherPublishesExternalChanges(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pitkeeper.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	b := New()
	var external atomic.Int32
	b.Subscribe(func(n Notification) {
		if n.Origin == OriginExternal {
			external.Add(1)
		}
	})

	detector := &fakeDetector{}
	detector.set(true, nil)
	w, err := NewWatcher(dbPath, detector, b, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	w.Start(context.Background())
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(dbPath, []byte("xy"), 0o644))
	require.Eventually(t, func() bool { return external.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresUnrelatedFilesAndOwnWrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pitkeeper.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	b := New()
	var published atomic.Int32
	b.Subscribe(func(Notification) { published.Add(1) })

	detector := &fakeDetector{}
	w, err := NewWatcher(dbPath, detector, b, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dbPath, []byte("xy"), 0o644))
	require.Eventually(t, func() bool { return detector.callCount() >= 1 }, 2*time.Second, 10*time.Millisecond)

	detector.set(false, errors.New("probe failed"))
	require.NoError(t, os.WriteFile(dbPath, []byte("xyz"), 0o644))
	require.Eventually(t, func() bool { return detector.callCount() >= 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
	assert.Equal(t, int32(0), published.Load())
}

func TestWatcherRequiresPath(t *testing.T) {
	_, err := NewWatcher("", &fakeDetector{}, New())
	require.Error(t, err)
}

func TestWatcherMissingDirectoryClosesWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "pitkeeper.db")
	_, err := NewWatcher(path, &fakeDetector{}, New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch ")
}
