// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the debounce sleep in lib/classifyqueue so it can
// be driven deterministically in tests. Production code injects
// Real(); tests inject Fake().
type Clock interface {
	// Sleep pauses the current goroutine for at least duration d.
	// Equivalent to time.Sleep.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
