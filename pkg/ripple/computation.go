package ripple

import "time"

// computation is an observer that wraps a function, re-evaluates it when
// dependencies change, and republishes the result through an owned signal.
// Memos and effects are thin typed rims over it.
type computation struct {
	observer

	// fn produces the next result. The value type is erased here; the
	// generic constructor installs the typed conversions.
	fn func() any

	// resultCore is the owned result signal's core, nil only while the
	// very first evaluation is still running.
	resultCore *signalCore

	// write pushes a recomputed value through the result signal's ordinary
	// write path. nil only during the first evaluation.
	write func(any)

	// waiting counts upstream dependencies currently mid-wave. The node
	// re-evaluates only when the count returns to zero.
	waiting int

	// fresh records whether any upstream value actually changed during the
	// current wave. Sticky until the node settles.
	fresh bool

	// kindTag distinguishes memos from effects in hook events.
	kindTag NodeKind
}

// newComputation builds a computation, runs it once synchronously, and
// wraps the produced value in an owned result signal. The result signal is
// constructed directly from the computed value rather than written, so the
// equality policy never sees an undefined baseline.
func newComputation[T any](fn func() T, kind NodeKind, opts []SignalOption[T]) (*computation, *Signal[T]) {
	ec := currentContext()
	c := &computation{
		observer: observer{
			id:     nextID(),
			parent: ec.observer,
		},
		fn:      func() any { return fn() },
		kindTag: kind,
	}
	c.comp = c
	c.name = applyOptions(opts).name
	emitNodeCreated(c.info())

	first := c.run()
	// A swallowed panic in the first run leaves no value; comma-ok decays
	// that to the zero value.
	initial, _ := first.(T)
	result := newSignal(initial, c, opts)
	c.resultCore = &result.core
	c.write = func(v any) {
		next, _ := v.(T)
		result.write(next)
	}
	return c, result
}

// run performs one evaluation: the node first tears itself down, clearing
// the previous dependency edges and children so the dependency set can
// change between runs, then re-registers with its parent and evaluates fn
// under tracking.
func (c *computation) run() any {
	c.teardown()
	if c.parent != nil {
		c.parent.addChild(&c.observer)
	}

	timed := hooksActive()
	var start time.Time
	if timed {
		start = time.Now()
	}

	var value any
	runScoped(func() { value = c.fn() }, &c.observer, true)

	if timed {
		emitComputationRan(c.info(), time.Since(start))
	}
	return value
}

// update re-evaluates and republishes the result.
//
// waiting is reset first: the forced-refresh path reaches update while the
// counter is still positive, and the pending decrements must then land as
// no-ops rather than drive the counter negative.
func (c *computation) update() {
	c.waiting = 0
	c.fresh = false
	value := c.run()
	if c.write != nil {
		c.write(value)
	}
}

// stale advances this node through one step of a staleness wave.
//
// change is +1 when an upstream dependency enters its wave and -1 when it
// settles; fresh reports whether any upstream value actually changed. The
// node re-evaluates exactly when its counter returns to zero with a fresh
// upstream, which caps re-evaluation at once per wave no matter how many
// converging paths deliver notifications.
func (c *computation) stale(change int, fresh bool) {
	// A decrement on a settled node is the tail of a wave this node
	// already left through a forced refresh.
	if c.waiting == 0 && change < 0 {
		return
	}

	// First increment of the wave: mark our own dependents transitively
	// waiting, exactly once, before the counter moves.
	if c.waiting == 0 && change > 0 && c.resultCore != nil {
		c.resultCore.propagateStale(1, false)
	}

	c.waiting += change
	if fresh {
		c.fresh = true
	}

	if c.waiting == 0 {
		if c.fresh {
			c.update()
		}
		if c.resultCore != nil {
			c.resultCore.propagateStale(-1, false)
		}
	}
}
