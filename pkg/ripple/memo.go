package ripple

// Memo is a derived computation whose result behaves like a read-only
// signal. The body runs once at creation and again whenever a dependency
// changes, at most once per update wave.
type Memo[T any] struct {
	comp   *computation
	result *Signal[T]
}

// NewMemo creates a memo from fn and evaluates it immediately.
//
// Example:
//
//	count := NewSignal(2)
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//	doubled.Get() // 4
func NewMemo[T any](fn func() T, opts ...SignalOption[T]) *Memo[T] {
	comp, result := newComputation(fn, KindMemo, opts)
	return &Memo[T]{comp: comp, result: result}
}

// Get returns the memo's current value, registering a dependency when
// tracking is active. A memo read mid-wave settles before returning.
func (m *Memo[T]) Get() T {
	return m.result.Get()
}

// Peek returns the current value without registering a dependency.
func (m *Memo[T]) Peek() T {
	return m.result.Peek()
}

// Accessor returns the getter closing over the memo's result signal.
func (m *Memo[T]) Accessor() func() T {
	return m.Get
}

// ID returns the unique identifier of the underlying computation.
func (m *Memo[T]) ID() uint64 {
	return m.comp.id
}

// Name returns the label given via WithName, or the empty string.
func (m *Memo[T]) Name() string {
	return m.comp.name
}
