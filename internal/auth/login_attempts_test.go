package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLoginAttemptGuard_ThresholdReachedOnFifthFailure(t *testing.T) {
	guard := NewLoginAttemptGuard(DefaultLoginAttemptConfig())

	for i := 1; i <= 4; i++ {
		assert.Equal(t, i, guard.RecordFailure("bob"))
		assert.False(t, guard.HasExceededThreshold("bob"), "attempt %d should not trip the threshold", i)
	}

	assert.Equal(t, 5, guard.RecordFailure("bob"))
	assert.True(t, guard.HasExceededThreshold("bob"))

	guard.Evict("bob")
	assert.False(t, guard.HasExceededThreshold("bob"))
	assert.Equal(t, 0, guard.Attempts("bob"))
}

func TestLoginAttemptGuard_UnknownUsernameCountsAsZero(t *testing.T) {
	guard := NewLoginAttemptGuard(DefaultLoginAttemptConfig())

	assert.Equal(t, 0, guard.Attempts("nobody"))
	assert.False(t, guard.HasExceededThreshold("nobody"))

	// Evicting a missing entry is a no-op
	guard.Evict("nobody")
	assert.Equal(t, 0, guard.Attempts("nobody"))
}

func TestLoginAttemptGuard_UsernamesAreIndependent(t *testing.T) {
	guard := NewLoginAttemptGuard(DefaultLoginAttemptConfig())

	for i := 0; i < 5; i++ {
		guard.RecordFailure("bob")
	}
	guard.RecordFailure("alice")

	assert.True(t, guard.HasExceededThreshold("bob"))
	assert.False(t, guard.HasExceededThreshold("alice"))
	assert.Equal(t, 1, guard.Attempts("alice"))
}

func TestLoginAttemptGuard_EntriesExpire(t *testing.T) {
	guard := NewLoginAttemptGuard(LoginAttemptConfig{
		MaxEntries:  10,
		TTL:         50 * time.Millisecond,
		MaxAttempts: 2,
	})

	guard.RecordFailure("bob")
	guard.RecordFailure("bob")
	require.True(t, guard.HasExceededThreshold("bob"))

	time.Sleep(120 * time.Millisecond)

	assert.False(t, guard.HasExceededThreshold("bob"))
	// An expired entry restarts from zero
	assert.Equal(t, 1, guard.RecordFailure("bob"))
}

func TestLoginAttemptGuard_WriteResetsTTL(t *testing.T) {
	guard := NewLoginAttemptGuard(LoginAttemptConfig{
		MaxEntries:  10,
		TTL:         150 * time.Millisecond,
		MaxAttempts: 5,
	})

	guard.RecordFailure("bob")
	time.Sleep(100 * time.Millisecond)
	guard.RecordFailure("bob")
	time.Sleep(100 * time.Millisecond)

	// 200ms since the first write, 100ms since the last
	assert.Equal(t, 2, guard.Attempts("bob"))
}

func TestLoginAttemptGuard_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	guard := NewLoginAttemptGuard(LoginAttemptConfig{
		MaxEntries:  3,
		TTL:         time.Minute,
		MaxAttempts: 5,
	})

	guard.RecordFailure("u1")
	guard.RecordFailure("u2")
	guard.RecordFailure("u3")
	guard.RecordFailure("u1") // u1 becomes most recent, u2 is now oldest
	guard.RecordFailure("u4")

	assert.Equal(t, 0, guard.Attempts("u2"))
	assert.Equal(t, 2, guard.Attempts("u1"))
	assert.Equal(t, 1, guard.Attempts("u3"))
	assert.Equal(t, 1, guard.Attempts("u4"))
}

func TestLoginAttemptGuard_DefaultsApplied(t *testing.T) {
	guard := NewLoginAttemptGuard(LoginAttemptConfig{})
	assert.Equal(t, DefaultMaxFailedAttempts, guard.MaxAttempts())
}

func TestLoginAttemptGuard_ConcurrentFailuresAreNotLost(t *testing.T) {
	guard := NewLoginAttemptGuard(LoginAttemptConfig{
		MaxEntries:  100,
		TTL:         time.Minute,
		MaxAttempts: 1000,
	})

	const workers = 50
	const perWorker = 20

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				guard.RecordFailure("bob")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, workers*perWorker, guard.Attempts("bob"))
}

func TestLoginAttemptGuard_ConcurrentMixedOperations(t *testing.T) {
	guard := NewLoginAttemptGuard(DefaultLoginAttemptConfig())

	var wg sync.WaitGroup
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			username := fmt.Sprintf("user%d", w%5)
			for i := 0; i < 100; i++ {
				switch i % 3 {
				case 0:
					guard.RecordFailure(username)
				case 1:
					guard.HasExceededThreshold(username)
				default:
					guard.Evict(username)
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < 5; w++ {
		assert.GreaterOrEqual(t, guard.Attempts(fmt.Sprintf("user%d", w)), 0)
	}
}
