package lockout

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocksAfterThreshold(t *testing.T) {
	t.Parallel()

	tr := New(3, 10*time.Minute)

	require.False(t, tr.Locked("alice"))

	tr.Fail("alice")
	require.False(t, tr.Locked("alice"))
	tr.Fail("alice")
	require.False(t, tr.Locked("alice"))
	tr.Fail("alice")
	require.True(t, tr.Locked("alice"))

	// Unrelated keys are unaffected.
	require.False(t, tr.Locked("bob"))
}

func TestWindowExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }
	tr := newAt(3, 10*time.Minute, clock)

	tr.Fail("alice")
	tr.Fail("alice")
	tr.Fail("alice")
	require.True(t, tr.Locked("alice"))

	// Advance past the lockout window; the counter reads as expired.
	now = now.Add(10*time.Minute + time.Second)
	require.False(t, tr.Locked("alice"))

	// A failure after expiry starts a fresh counter, not a continuation.
	tr.Fail("alice")
	require.False(t, tr.Locked("alice"))
}

func TestClearResetsCounter(t *testing.T) {
	t.Parallel()

	tr := New(3, 10*time.Minute)

	tr.Fail("alice")
	tr.Fail("alice")
	tr.Fail("alice")
	require.True(t, tr.Locked("alice"))

	tr.Clear("alice")
	require.False(t, tr.Locked("alice"))

	tr.Fail("alice")
	require.False(t, tr.Locked("alice"), "cleared key should need threshold failures again")
}

func TestConcurrentFailures(t *testing.T) {
	t.Parallel()

	const (
		workers = 50
		keys    = 5
	)

	tr := New(workers, time.Hour)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for k := range keys {
				tr.Fail(fmt.Sprintf("user-%d", k))
				_ = w
			}
		}(w)
	}
	wg.Wait()

	// Every key saw exactly `workers` failures; no increments lost.
	for k := range keys {
		require.True(t, tr.Locked(fmt.Sprintf("user-%d", k)))
	}
}
