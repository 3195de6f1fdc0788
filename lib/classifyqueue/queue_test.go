// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package classifyqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gauravkhati/magicfolder/lib/clock"
	"github.com/gauravkhati/magicfolder/lib/visibility"
)

type fakeResolver struct{ root string }

func (r fakeResolver) AbsPath(name string) string { return r.root + "/" + name }

type recordingClassifier struct {
	mu    sync.Mutex
	calls [][]string
	reply map[string]string
}

func (c *recordingClassifier) Classify(ctx context.Context, paths []string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := append([]string(nil), paths...)
	c.calls = append(c.calls, batch)
	if c.reply == nil {
		return map[string]string{}
	}
	out := make(map[string]string)
	for _, p := range paths {
		if category, ok := c.reply[p]; ok {
			out[p] = category
		}
	}
	return out
}

func (c *recordingClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *recordingClassifier) lastBatch() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	return c.calls[len(c.calls)-1]
}

func newTestQueue(t *testing.T, classifier Classifier, fc *clock.FakeClock) (*Queue, *visibility.State) {
	t.Helper()
	state := visibility.New()
	q := New(Options{
		State:      state,
		Classifier: classifier,
		Resolver:   fakeResolver{root: "/backing"},
		Clock:      fc,
	})
	q.Start(context.Background())
	t.Cleanup(q.Shutdown)
	return q, state
}

func TestEnqueueThenClassifyAssignsCategory(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	classifier := &recordingClassifier{reply: map[string]string{"/backing/invoice.pdf": "Documents"}}
	q, state := newTestQueue(t, classifier, fc)

	state.MarkHidden("invoice.pdf")
	q.Enqueue("invoice.pdf")

	fc.WaitForTimers(1)
	fc.Advance(DefaultDebounce)

	waitUntil(t, func() bool {
		category, ok := state.CategoryOf("invoice.pdf")
		return ok && category == "Documents"
	})
	if state.IsHidden("invoice.pdf") {
		t.Error("invoice.pdf must no longer be hidden after classification")
	}
}

func TestEnqueueIgnoresIgnoredNames(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	classifier := &recordingClassifier{}
	q, _ := newTestQueue(t, classifier, fc)

	q.Enqueue(".DS_Store")

	waitUntil(t, func() bool { return q.Len() == 0 && q.InFlight() == 0 })
}

func TestEnqueueDeduplicatesWhileInFlight(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	classifier := &recordingClassifier{reply: map[string]string{"/backing/a": "Stuff"}}
	q, state := newTestQueue(t, classifier, fc)

	state.MarkHidden("a")
	q.Enqueue("a")
	q.Enqueue("a")
	q.Enqueue("a")

	fc.WaitForTimers(1)
	fc.Advance(DefaultDebounce)

	waitUntil(t, func() bool {
		_, ok := state.CategoryOf("a")
		return ok
	})

	if got := len(classifier.lastBatch()); got != 1 {
		t.Errorf("expected exactly one path in the batch, got %d: %v", got, classifier.lastBatch())
	}
}

func TestBatchesMultipleFilesIntoOneCall(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	classifier := &recordingClassifier{reply: map[string]string{
		"/backing/a": "Stuff",
		"/backing/b": "Stuff",
		"/backing/c": "Stuff",
	}}
	q, state := newTestQueue(t, classifier, fc)

	for _, name := range []string{"a", "b", "c"} {
		state.MarkHidden(name)
		q.Enqueue(name)
	}

	fc.WaitForTimers(1)
	fc.Advance(DefaultDebounce)

	waitUntil(t, func() bool {
		_, ok := state.CategoryOf("c")
		return ok
	})

	if classifier.callCount() != 1 {
		t.Errorf("expected exactly one RPC call, got %d", classifier.callCount())
	}
	if got := len(classifier.lastBatch()); got != 3 {
		t.Errorf("expected 3 paths in the batch, got %d", got)
	}
}

func TestUnverdictedFileRemainsHidden(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	classifier := &recordingClassifier{reply: map[string]string{}}
	q, state := newTestQueue(t, classifier, fc)

	state.MarkHidden("mystery")
	q.Enqueue("mystery")

	fc.WaitForTimers(1)
	fc.Advance(DefaultDebounce)

	waitUntil(t, func() bool { return q.InFlight() == 0 })

	if !state.IsHidden("mystery") {
		t.Error("file with no verdict must remain hidden")
	}
	if _, ok := state.CategoryOf("mystery"); ok {
		t.Error("file with no verdict must not have a category")
	}
}

func TestAlreadyClassifiedNameIsNotEnqueued(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	classifier := &recordingClassifier{}
	q, state := newTestQueue(t, classifier, fc)

	state.AssignCategory("done.txt", "Documents")
	q.Enqueue("done.txt")

	waitUntil(t, func() bool { return q.Len() == 0 && q.InFlight() == 0 })
}

func TestShutdownWaitsForInFlightBatch(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	classifier := &recordingClassifier{reply: map[string]string{"/backing/a": "Stuff"}}
	state := visibility.New()
	q := New(Options{
		State:      state,
		Classifier: classifier,
		Resolver:   fakeResolver{root: "/backing"},
		Clock:      fc,
	})
	q.Start(context.Background())

	state.MarkHidden("a")
	q.Enqueue("a")

	fc.WaitForTimers(1)
	fc.Advance(DefaultDebounce)

	q.Shutdown()

	category, ok := state.CategoryOf("a")
	if !ok || category != "Stuff" {
		t.Errorf("expected the in-flight batch to finish before shutdown returns, got (%q, %v)", category, ok)
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
