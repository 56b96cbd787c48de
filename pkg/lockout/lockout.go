// Package lockout tracks consecutive authentication failures per identity
// key and locks the key once a threshold is reached inside a sliding window.
// Counters live in process memory only; they throttle brute force within a
// running instance and are intentionally lost on restart.
package lockout

import (
	"sync"
	"time"
)

// Tracker counts failures per key. A key is locked while a non-expired
// counter has reached the threshold. Safe for concurrent use; keys are
// independent, there is no global lock across unrelated keys.
type Tracker struct {
	threshold int
	window    time.Duration
	now       func() time.Time

	entries sync.Map // map[string]*entry

	mu          sync.Mutex
	lastCleanup time.Time
}

type entry struct {
	mu    sync.Mutex
	count int
	first time.Time
}

// cleanupInterval bounds how often the opportunistic sweep of expired
// counters runs.
const cleanupInterval = 5 * time.Minute

// New returns a Tracker that locks a key after threshold failures within
// window.
func New(threshold int, window time.Duration) *Tracker {
	return &Tracker{
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// newAt is like New but with an injected clock, for tests.
func newAt(threshold int, window time.Duration, now func() time.Time) *Tracker {
	t := New(threshold, window)
	t.now = now
	return t
}

// Fail records a failed attempt for key. An absent or expired counter starts
// fresh at 1; otherwise the existing counter is incremented.
func (t *Tracker) Fail(key string) {
	e := t.entry(key)

	e.mu.Lock()
	now := t.now()
	if e.count == 0 || now.Sub(e.first) >= t.window {
		e.count = 1
		e.first = now
	} else {
		e.count++
	}
	e.mu.Unlock()

	t.maybeCleanup()
}

// Locked reports whether key has reached the failure threshold within the
// current window. Expired counters read as unlocked; expiry is lazy.
func (t *Tracker) Locked(key string) bool {
	v, ok := t.entries.Load(key)
	if !ok {
		return false
	}
	e := v.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.count == 0 || t.now().Sub(e.first) >= t.window {
		return false
	}
	return e.count >= t.threshold
}

// Clear removes the counter for key, typically on successful authentication.
func (t *Tracker) Clear(key string) {
	t.entries.Delete(key)
}

func (t *Tracker) entry(key string) *entry {
	if v, ok := t.entries.Load(key); ok {
		return v.(*entry)
	}
	v, _ := t.entries.LoadOrStore(key, &entry{})
	return v.(*entry)
}

// maybeCleanup sweeps expired counters so abandoned keys don't accumulate
// forever. Correctness never depends on it; Locked and Fail already treat
// expired counters as absent.
func (t *Tracker) maybeCleanup() {
	t.mu.Lock()
	now := t.now()
	if now.Sub(t.lastCleanup) < cleanupInterval {
		t.mu.Unlock()
		return
	}
	t.lastCleanup = now
	t.mu.Unlock()

	t.entries.Range(func(key, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		expired := e.count == 0 || now.Sub(e.first) >= t.window
		e.mu.Unlock()
		if expired {
			t.entries.Delete(key)
		}
		return true
	})
}
