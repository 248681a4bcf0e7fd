package ripple

import (
	"log/slog"
	"time"
)

// Debug enables debug logging for signal writes and batch commits.
// Lines go through slog at debug level. Set at startup; not meant to be
// toggled while a graph is active.
var Debug bool

// batchBuffer stages signal writes during a batch, last write per signal
// wins. Staging order is kept so commits are deterministic.
type batchBuffer struct {
	order  []*signalCore
	staged map[*signalCore]any
}

// stage records the pending value for a signal.
func (b *batchBuffer) stage(sc *signalCore, value any) {
	if _, ok := b.staged[sc]; !ok {
		b.order = append(b.order, sc)
	}
	b.staged[sc] = value
}

// Batch stages every signal write inside fn and commits them as a single
// propagation wave, so a computation depending on several written signals
// settles exactly once. Reads inside fn still return pre-batch values.
//
// Batches do not nest: an inner Batch runs its function directly and its
// writes stage into the outer buffer.
//
// The commit still runs when fn panics; the panic resumes afterwards.
//
// Example:
//
//	Batch(func() {
//	    firstName.Set("Ada")
//	    lastName.Set("Lovelace")
//	})
//	// Dependents of both signals re-ran once
func Batch(fn func()) {
	ec := currentContext()
	if ec.batch != nil {
		fn()
		return
	}

	b := &batchBuffer{staged: make(map[*signalCore]any)}
	ec.batch = b

	defer func() {
		// The slot is cleared first so the writes below apply directly
		// instead of re-staging into the buffer being committed.
		ec.batch = nil
		commit(b)
	}()

	fn()
}

// BatchValue is Batch for a function with a result.
func BatchValue[T any](fn func() T) T {
	var value T
	Batch(func() {
		value = fn()
	})
	return value
}

// commit applies a staged buffer in three full passes: mark every staged
// signal's dependents waiting, perform the ordinary writes (equality and
// per-signal freshness apply as usual), then release. Completing each pass
// over the whole set before the next one is what lets a node reached from
// several staged signals settle once.
func commit(b *batchBuffer) {
	if len(b.order) == 0 {
		return
	}

	timed := hooksActive()
	var start time.Time
	if timed {
		start = time.Now()
	}
	if Debug {
		slog.Debug("ripple: batch commit", "staged", len(b.order))
	}

	for _, sc := range b.order {
		sc.propagateStale(1, false)
	}
	for _, sc := range b.order {
		sc.writeStaged(b.staged[sc])
	}
	for _, sc := range b.order {
		sc.propagateStale(-1, false)
	}

	if timed {
		emitBatchCommitted(len(b.order), time.Since(start))
	}
}

// Untrack runs fn with dependency tracking disabled and returns its
// result. The active observer stays installed, so OnCleanup, OnError and
// context lookup still work; only edge registration is suppressed.
//
// Example:
//
//	CreateEffect(func() {
//	    cur := cursor.Get()
//	    max := Untrack(func() int { return limit.Get() }) // no edge to limit
//	    draw(cur, max)
//	})
func Untrack[T any](fn func() T) T {
	ec := currentContext()
	var value T
	runScoped(func() { value = fn() }, ec.observer, false)
	return value
}
