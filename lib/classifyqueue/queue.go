// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package classifyqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gauravkhati/magicfolder/lib/clock"
	"github.com/gauravkhati/magicfolder/lib/ignore"
	"github.com/gauravkhati/magicfolder/lib/visibility"
)

// DefaultDebounce is the design value for the debounce window: long
// enough for a burst of releases from a multi-file copy to coalesce
// into one request, and for writers to finish flushing before the
// classifier reads the bytes.
const DefaultDebounce = 500 * time.Millisecond

// Classifier sends a batch of absolute backing-store paths to the
// classification service and returns the verdicts it received,
// keyed by the same absolute path. A path with no entry in the
// returned map received no verdict and stays Hidden. An empty map
// means the batch was abandoned (unreachable service, timeout, or an
// unparseable response).
type Classifier interface {
	Classify(ctx context.Context, paths []string) map[string]string
}

// Resolver maps a backing-store filename to the absolute path that
// the Classifier must be sent.
type Resolver interface {
	AbsPath(name string) string
}

// Options configures a Queue.
type Options struct {
	State      *visibility.State
	Classifier Classifier
	Resolver   Resolver

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Queue is the FIFO of filenames awaiting classification, paired
// with an in-flight set used for duplicate suppression. A single
// background worker, started with Start, drains it.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	fifo     []string
	inFlight map[string]struct{}
	running  bool

	state      *visibility.State
	classifier Classifier
	resolver   Resolver
	clock      clock.Clock
	debounce   time.Duration
	logger     *slog.Logger

	wg sync.WaitGroup
}

// New constructs a Queue ready to accept enqueues. Call Start to
// begin draining it.
func New(opts Options) *Queue {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	q := &Queue{
		inFlight:   make(map[string]struct{}),
		running:    true,
		state:      opts.State,
		classifier: opts.Classifier,
		resolver:   opts.Resolver,
		clock:      opts.Clock,
		debounce:   opts.Debounce,
		logger:     opts.Logger,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue pushes name onto the FIFO and signals the worker. Ignored
// filenames, filenames already classified, and filenames already
// in the FIFO or in-flight set are silently dropped.
//
// The classification check against Visibility State happens before
// the queue mutex is taken, so this call never holds the state mutex
// and the queue mutex at the same time.
func (q *Queue) Enqueue(name string) {
	if ignore.Is(name) {
		return
	}
	if _, classified := q.state.CategoryOf(name); classified {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}
	if _, inFlight := q.inFlight[name]; inFlight {
		return
	}
	q.inFlight[name] = struct{}{}
	q.fifo = append(q.fifo, name)
	q.cond.Broadcast()
}

// Start launches the worker loop in its own goroutine.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.loop(ctx)
	}()
}

// Shutdown requests the worker to stop and blocks until it exits.
// The worker finishes at most one in-flight batch first.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.running = false
	q.cond.Broadcast()
	q.mu.Unlock()
	q.wg.Wait()
}

// Len reports the number of filenames currently waiting in the FIFO.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fifo)
}

// InFlight reports the number of filenames enqueued or currently
// being classified.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

func (q *Queue) loop(ctx context.Context) {
	for {
		batch, ok := q.nextBatch()
		if !ok {
			return
		}
		if len(batch) > 0 {
			q.classify(ctx, batch)
		}

		q.mu.Lock()
		shuttingDown := !q.running
		q.mu.Unlock()
		if shuttingDown {
			return
		}
	}
}

// nextBatch waits for work, applies the debounce window, and drains
// the FIFO. Returns ok=false only when shutdown was requested with
// an empty queue.
func (q *Queue) nextBatch() (batch []string, ok bool) {
	q.mu.Lock()
	for len(q.fifo) == 0 && q.running {
		q.cond.Wait()
	}
	if len(q.fifo) == 0 && !q.running {
		q.mu.Unlock()
		return nil, false
	}
	q.mu.Unlock()

	q.clock.Sleep(q.debounce)

	q.mu.Lock()
	batch = q.fifo
	q.fifo = nil
	q.mu.Unlock()
	return batch, true
}

func (q *Queue) classify(ctx context.Context, batch []string) {
	pathToName := make(map[string]string, len(batch))
	paths := make([]string, len(batch))
	for i, name := range batch {
		abs := q.resolver.AbsPath(name)
		paths[i] = abs
		pathToName[abs] = name
	}

	verdicts := q.classifier.Classify(ctx, paths)
	if len(verdicts) == 0 {
		q.logger.Warn("classification batch returned no verdicts", "batch_size", len(batch))
	} else if len(verdicts) < len(batch) {
		q.logger.Info("classification batch partially verdicted",
			"batch_size", len(batch), "verdicts", len(verdicts))
	}

	for path, category := range verdicts {
		name, ok := pathToName[path]
		if !ok {
			q.logger.Warn("classifier verdict for unrequested path", "path", path)
			continue
		}
		q.state.AssignCategory(name, category)
	}

	q.mu.Lock()
	for _, name := range batch {
		delete(q.inFlight, name)
	}
	q.mu.Unlock()
}
