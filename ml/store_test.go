package ml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingrisk/logger"
)

func TestStoreCachesSuccessfulLoads(t *testing.T) {
	var loads atomic.Int32
	store, err := NewStore(2, WithLoader(func(path string) (Classifier, error) {
		loads.Add(1)
		return LoadModel(path)
	}))
	require.NoError(t, err)

	first, err := store.Get("testdata/booking_gbt.json")
	require.NoError(t, err)
	second, err := store.Get("testdata/booking_gbt.json")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loads.Load())
	assert.Equal(t, 1, store.Len())
}

func TestStoreDoesNotCacheFailures(t *testing.T) {
	var observed []error
	store, err := NewStore(2, WithLoadObserver(func(_ string, _ time.Duration, err error) {
		observed = append(observed, err)
	}))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := store.Get("testdata/missing.json")
		var loadErr *ModelLoadError
		require.ErrorAs(t, err, &loadErr)
	}
	assert.Equal(t, 0, store.Len())
	require.Len(t, observed, 2)
	assert.Error(t, observed[0])
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewStore(1)
	require.NoError(t, err)

	_, err = store.Get("testdata/booking_gbt.json")
	require.NoError(t, err)
	_, err = store.Get("testdata/booking_tree.json")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.False(t, store.Invalidate("testdata/booking_gbt.json"))
	assert.True(t, store.Invalidate("testdata/booking_tree.json"))
}

func TestStoreSkipsLoadRacingInvalidate(t *testing.T) {
	var loads atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	store, err := NewStore(2, WithLoader(func(path string) (Classifier, error) {
		if loads.Add(1) == 1 {
			close(started)
			<-release
		}
		return LoadModel(path)
	}))
	require.NoError(t, err)

	const path = "testdata/booking_gbt.json"
	done := make(chan error, 1)
	go func() {
		_, err := store.Get(path)
		done <- err
	}()

	<-started
	store.Invalidate(path)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 0, store.Len())
	_, err = store.Get(path)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
	assert.Equal(t, 1, store.Len())
}

func TestNewStoreRejectsBadSize(t *testing.T) {
	_, err := NewStore(0)
	assert.Error(t, err)
}

func TestFileSourceHonoursContext(t *testing.T) {
	store, err := NewStore(1)
	require.NoError(t, err)
	source := store.Source("testdata/booking_gbt.json")
	assert.Equal(t, "testdata/booking_gbt.json", source.Path())

	model, err := source.Model(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, model)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = source.Model(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWatcherInvalidatesOnChange(t *testing.T) {
	payload, err := os.ReadFile("testdata/booking_gbt.json")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	store, err := NewStore(1)
	require.NoError(t, err)
	_, err = store.Get(path)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	watcher, err := NewWatcher(store, logger.NewNop(), path)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	require.NoError(t, os.WriteFile(path, payload, 0o600))

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
