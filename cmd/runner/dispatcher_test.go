package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/quicklaunch/internal/logging"
)

func TestDispatcherRunsInOrder(t *testing.T) {
	d, err := newDispatcher(4, logging.Discard())
	require.NoError(t, err)
	defer d.close()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, d.post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, d.call(context.Background(), func() {}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestDispatcherNeverOverlaps(t *testing.T) {
	d, err := newDispatcher(4, logging.Discard())
	require.NoError(t, err)
	defer d.close()

	var active, maxActive int
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.call(context.Background(), func() {
				active++
				if active > maxActive {
					maxActive = active
				}
				time.Sleep(time.Millisecond)
				active--
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestDispatcherSurvivesPanic(t *testing.T) {
	d, err := newDispatcher(1, logging.Discard())
	require.NoError(t, err)
	defer d.close()

	require.NoError(t, d.post(func() { panic("boom") }))
	ran := false
	require.NoError(t, d.call(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestDispatcherCallHonoursContext(t *testing.T) {
	d, err := newDispatcher(1, logging.Discard())
	require.NoError(t, err)
	defer d.close()

	release := make(chan struct{})
	require.NoError(t, d.post(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.call(ctx, func() {}), context.DeadlineExceeded)
	close(release)
}

func TestDispatcherClosedRejects(t *testing.T) {
	d, err := newDispatcher(1, logging.Discard())
	require.NoError(t, err)
	d.close()
	assert.Error(t, d.post(func() {}))
	assert.Error(t, d.call(context.Background(), func() {}))
}
