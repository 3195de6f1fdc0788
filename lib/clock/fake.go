// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called; a pending Sleep registers a waiter
// that fires once the clock advances to or past its deadline.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.waitersChanged = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for testing. Time advances only
// when Advance is called; Sleep blocks until the clock is advanced
// to or past its deadline.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	waiters        []*fakeWaiter
	waitersChanged *sync.Cond
}

// fakeWaiter represents a pending Sleep call.
type fakeWaiter struct {
	deadline time.Time
	done     chan struct{}
}

// Sleep blocks until the clock advances to or past current time + d. If
// d <= 0, returns immediately without registering a waiter.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}

	c.mu.Lock()
	done := make(chan struct{})
	c.waiters = append(c.waiters, &fakeWaiter{
		deadline: c.current.Add(d),
		done:     done,
	})
	c.waitersChanged.Broadcast()
	c.mu.Unlock()

	<-done
}

// Advance moves the clock forward by d and wakes every Sleep waiter
// whose deadline now falls at or before the new time.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current

	var remaining []*fakeWaiter
	var toFire []*fakeWaiter
	for _, waiter := range c.waiters {
		if waiter.deadline.After(target) {
			remaining = append(remaining, waiter)
		} else {
			toFire = append(toFire, waiter)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	for _, waiter := range toFire {
		close(waiter.done)
	}
}

// WaitForTimers blocks until at least n Sleep calls are pending
// (registered but not yet fired). This synchronization primitive
// eliminates the race between a goroutine calling Sleep and the test
// advancing the clock past it.
//
// Example:
//
//	go func() { fakeClock.Sleep(5 * time.Second) }()
//	fakeClock.WaitForTimers(1)         // blocks until Sleep registers
//	fakeClock.Advance(5 * time.Second) // deterministically wakes it
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.waitersChanged.Wait()
	}
}

// PendingCount returns the number of Sleep calls currently pending.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
