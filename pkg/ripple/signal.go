package ripple

import (
	"log/slog"
	"reflect"
)

// signalCore provides type-erased observer management and staleness
// propagation. It is embedded in Signal[T] so the wave algorithm can run
// without knowing the value type.
type signalCore struct {
	id   uint64
	name string

	// observers are the computations depending on this signal, in
	// registration order. Mutual with each computation's sources list.
	observers []*computation

	// owner is the computation whose result this signal holds, or nil for
	// a plain signal. Reads consult it for the forced-refresh rule.
	owner *computation

	// writeStaged writes a staged value through the typed write path.
	// Installed by the generic rim; used only by batch commits.
	writeStaged func(any)
}

// addObserver registers a dependent computation.
// Deduplicates by ID so repeated reads within one evaluation collapse
// to a single edge.
func (sc *signalCore) addObserver(c *computation) {
	for _, existing := range sc.observers {
		if existing.id == c.id {
			return
		}
	}
	sc.observers = append(sc.observers, c)
}

// removeObserver drops a dependent computation, preserving order.
func (sc *signalCore) removeObserver(c *computation) {
	for i, existing := range sc.observers {
		if existing.id == c.id {
			sc.observers = append(sc.observers[:i], sc.observers[i+1:]...)
			return
		}
	}
}

// propagateStale forwards a wave step to every current observer.
// Iterates a copy so observers disposed or re-linked mid-wave do not
// disturb the traversal; the stale counter guards make a trailing call
// to an already settled node a no-op.
func (sc *signalCore) propagateStale(change int, fresh bool) {
	if len(sc.observers) == 0 {
		return
	}
	observers := make([]*computation, len(sc.observers))
	copy(observers, sc.observers)
	for _, c := range observers {
		c.stale(change, fresh)
	}
}

// info describes this signal for runtime hooks.
func (sc *signalCore) info() NodeInfo {
	var parentID uint64
	if sc.owner != nil {
		parentID = sc.owner.id
	}
	return NodeInfo{ID: sc.id, Name: sc.name, Kind: KindSignal, ParentID: parentID}
}

// link registers the mutual dependency edge between a signal and the
// computation currently evaluating.
func link(sc *signalCore, c *computation) {
	sc.addObserver(c)
	c.addSource(sc)
}

// Signal is a reactive value container. Reading it inside a tracked
// evaluation (memo or effect body) registers a dependency edge; writing
// it propagates a staleness wave through all dependents.
type Signal[T any] struct {
	core signalCore

	// value is the current signal value.
	value T

	// equals gates writes: a write whose next value is equal to the
	// current one does not propagate.
	equals equality[T]

	// persistKey marks the signal for snapshot persistence when non-empty.
	persistKey string
}

// NewSignal creates a new signal with the given initial value.
//
// Example:
//
//	count := NewSignal(0)
//	name := NewSignal("anonymous", WithName[string]("user"))
//	ticks := NewSignal(0, NeverEqual[int]())
func NewSignal[T any](initial T, opts ...SignalOption[T]) *Signal[T] {
	s := newSignal(initial, nil, opts)
	emitNodeCreated(s.core.info())
	return s
}

// newSignal builds a signal without emitting hook events; owner is the
// computation publishing through it, or nil.
func newSignal[T any](initial T, owner *computation, opts []SignalOption[T]) *Signal[T] {
	cfg := applyOptions(opts)
	s := &Signal[T]{
		core: signalCore{
			id:    nextID(),
			name:  cfg.name,
			owner: owner,
		},
		value:  initial,
		equals: cfg.equals,
	}
	s.persistKey = cfg.persistKey
	s.core.writeStaged = func(v any) {
		next, _ := v.(T)
		s.write(next)
	}
	return s
}

// Get returns the current value.
//
// When tracking is active the current computation is registered as a
// dependent. If this signal carries the result of a computation that is
// mid-wave, that computation is forced to settle first, so a reader never
// observes a derived value that is behind its own dependencies.
func (s *Signal[T]) Get() T {
	ec := currentContext()
	if ec.tracking && ec.observer != nil && ec.observer.comp != nil {
		link(&s.core, ec.observer.comp)
	}
	s.refreshOwner()
	return s.value
}

// Peek returns the current value without registering a dependency.
// The forced-refresh rule still applies, so the value is never stale.
func (s *Signal[T]) Peek() T {
	s.refreshOwner()
	return s.value
}

// refreshOwner settles the owning computation if a wave left it waiting.
func (s *Signal[T]) refreshOwner() {
	if o := s.core.owner; o != nil && o.waiting > 0 {
		o.update()
	}
}

// Set writes a new value and returns the value observable through the
// signal after the call.
//
// A write that is equal to the current value under the signal's equality
// policy is a no-op. Inside a batch the write is staged and the previous
// value is returned; staged writes become visible when the batch commits.
func (s *Signal[T]) Set(value T) T {
	return s.write(value)
}

// Update writes the result of fn applied to the current value.
// Inside a batch, fn receives the unstaged current value.
func (s *Signal[T]) Update(fn func(T) T) T {
	return s.write(fn(s.value))
}

// write is the single write path: equality gate, batch staging, then the
// two-phase staleness wave.
func (s *Signal[T]) write(next T) T {
	if s.equals.same(s.value, next) {
		return s.value
	}

	ec := currentContext()
	if ec.batch != nil {
		ec.batch.stage(&s.core, next)
		return s.value
	}

	old := s.value
	s.value = next
	if Debug {
		slog.Debug("ripple: signal write", "signal", s.core.id, "name", s.core.name)
	}
	if hooksActive() {
		emitSignalWrite(s.core.info(), old, next)
	}

	// Mark every dependent waiting, then release: the +1/-1 pair lets a
	// node reached over several paths settle exactly once.
	s.core.propagateStale(1, true)
	s.core.propagateStale(-1, true)
	return next
}

// Accessors returns the getter/setter pair closing over this signal.
//
// Example:
//
//	get, set := NewSignal(1).Accessors()
//	set(get() + 1)
func (s *Signal[T]) Accessors() (get func() T, set func(T) T) {
	return s.Get, s.Set
}

// WithEqualsFn replaces the equality policy in place and returns the
// signal for chaining.
func (s *Signal[T]) WithEqualsFn(fn func(T, T) bool) *Signal[T] {
	s.equals = equality[T]{mode: equalsCustom, fn: fn}
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.core.id
}

// Name returns the label given via WithName, or the empty string.
func (s *Signal[T]) Name() string {
	return s.core.name
}

// defaultEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for others.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		// Fall back to reflect.DeepEqual for slices, maps, structs, etc.
		return reflect.DeepEqual(a, b)
	}
}
