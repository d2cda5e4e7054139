package application

import (
	"context"
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

func TestTryAcquireFailsWhileHeld(t *testing.T) {
	locks := NewListingLocks()

	release, ok := locks.TryAcquire("listing-1")
	require.True(t, ok)

	_, ok = locks.TryAcquire("listing-1")
	assert.False(t, ok)

	other, ok := locks.TryAcquire("listing-2")
	require.True(t, ok)
	other()

	release()
	release()
	again, ok := locks.TryAcquire("listing-1")
	require.True(t, ok)
	again()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func TestAcquireSerializesSameListing(t *testing.T) {
	locks := NewListingLocks()
	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(context.Background(), "listing-1")
			if err != nil {
				t.Error(err)
				return
			}
			defer release()
			current := inside.Add(1)
			for {
				seen := maxInside.Load()
				if current <= seen || maxInside.CompareAndSwap(seen, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestAcquireHonoursContext(t *testing.T) {
	locks := NewListingLocks()
	release, err := locks.Acquire(context.Background(), "listing-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(ctx, "listing-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNilRegistryDoesNotSerialize(t *testing.T) {
	var locks *ListingLocks
	release, err := locks.Acquire(context.Background(), "listing-1")
	require.NoError(t, err)
	_, ok := locks.TryAcquire("listing-1")
	assert.True(t, ok)
	release()
}
