package store

import (
	"sync"
	"sync/atomic"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

// spaceContext resolves the bound Space through the ownership chain.
// A root binds its own Space; every observer under it inherits the binding.
var spaceContext = ripple.CreateContext[*Space](nil)

// Space holds the scoped signals of one ownership tree.
type Space struct {
	signals sync.Map // keyed by definition id
}

// NewSpace creates an empty space.
func NewSpace() *Space {
	return &Space{}
}

// Bind attaches the space to the active observer's scope so scoped
// definitions read under it resolve against this space. Without an active
// observer this is a no-op.
func (s *Space) Bind() {
	spaceContext.Set(s)
}

// GlobalSignal creates a signal shared across the whole process.
// It is a plain signal wrapped for symmetry with ScopedSignal.
func GlobalSignal[T any](initial T, opts ...ripple.SignalOption[T]) *Global[T] {
	return &Global[T]{
		Signal: ripple.NewSignal(initial, opts...),
	}
}

// Global wraps a signal holding process-wide state.
type Global[T any] struct {
	*ripple.Signal[T]
}

// ScopedSignal creates a definition for a space-scoped signal.
// Each space resolves the definition to its own signal, created on first
// access in that space.
func ScopedSignal[T any](initial T) *Scoped[T] {
	return &Scoped[T]{
		id:      nextID(),
		initial: initial,
	}
}

// Scoped is a space-scoped signal definition.
type Scoped[T any] struct {
	id      uint64
	initial T
}

var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// Get returns the value of the signal in the current space, subscribing the
// active computation. Without a bound space it falls back to the initial
// value.
func (s *Scoped[T]) Get() T {
	sig := s.resolve()
	if sig == nil {
		return s.initial
	}
	return sig.Get()
}

// Peek returns the value in the current space without subscribing.
func (s *Scoped[T]) Peek() T {
	sig := s.resolve()
	if sig == nil {
		return s.initial
	}
	return sig.Peek()
}

// Set writes the value of the signal in the current space. Without a bound
// space this is a no-op and the initial value is returned.
func (s *Scoped[T]) Set(value T) T {
	sig := s.resolve()
	if sig == nil {
		return s.initial
	}
	return sig.Set(value)
}

// Update writes the result of fn applied to the current value in the
// current space. Without a bound space this is a no-op and the initial
// value is returned.
func (s *Scoped[T]) Update(fn func(T) T) T {
	sig := s.resolve()
	if sig == nil {
		return s.initial
	}
	return sig.Update(fn)
}

// resolve returns the signal backing this definition in the bound space,
// creating it on first access. Returns nil when no space is bound.
func (s *Scoped[T]) resolve() *ripple.Signal[T] {
	space := spaceContext.Get()
	if space == nil {
		return nil
	}

	if val, ok := space.signals.Load(s.id); ok {
		return val.(*ripple.Signal[T])
	}

	sig := ripple.NewSignal(s.initial)
	actual, loaded := space.signals.LoadOrStore(s.id, sig)
	if loaded {
		return actual.(*ripple.Signal[T])
	}
	return sig
}
