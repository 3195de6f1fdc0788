// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the one time operation magicfolder's
// background worker needs to control deterministically in tests: the
// classification queue's debounce sleep (lib/classifyqueue). Real
// provides the standard library behavior; Fake provides a clock that
// advances only when Advance is called, so a test can drive the 500ms
// debounce window without a real wait.
//
//	q := classifyqueue.New(classifyqueue.Options{Clock: clock.Real()})
//
//	c := clock.Fake(time.Now())
//	q := classifyqueue.New(classifyqueue.Options{Clock: c})
//	// ... enqueue, start the worker ...
//	c.WaitForTimers(1)      // block until the worker's Sleep registers
//	c.Advance(500 * time.Millisecond) // fire it deterministically
//
// magicfolder has no tickers or deferred callbacks to abstract, so
// Clock exposes only Sleep rather than the fuller time.Time/After/
// AfterFunc/Ticker surface a general-purpose clock package would
// carry.
package clock
