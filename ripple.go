// Package ripple provides the public API for the ripple reactive runtime.
//
// This is the recommended import for most applications:
//
//	import "github.com/ripple-dev/ripple"
//
// Usage:
//
//	count := ripple.NewSignal(0)
//	doubled := ripple.NewMemo(func() int { return count.Get() * 2 })
//	ripple.CreateEffect(func() {
//	    fmt.Println("count:", count.Get(), "doubled:", doubled.Get())
//	})
//	count.Set(21)
package ripple

import (
	coreripple "github.com/ripple-dev/ripple/pkg/ripple"
)

// =============================================================================
// Signals
// =============================================================================

// Signal is a reactive value container.
type Signal[T any] = coreripple.Signal[T]

// Memo is a derived computation exposing its result as a read-only signal.
type Memo[T any] = coreripple.Memo[T]

// IntSignal wraps Signal[int] with counter arithmetic.
type IntSignal = coreripple.IntSignal

// Float64Signal wraps Signal[float64] with arithmetic helpers.
type Float64Signal = coreripple.Float64Signal

// SignalOption configures a signal or memo at creation.
type SignalOption[T any] = coreripple.SignalOption[T]

// PersistableSignal is the snapshot surface of signals marked Persistent.
type PersistableSignal = coreripple.PersistableSignal

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T, opts ...SignalOption[T]) *Signal[T] {
	return coreripple.NewSignal(initial, opts...)
}

// NewMemo creates a derived computation and evaluates it immediately.
func NewMemo[T any](fn func() T, opts ...SignalOption[T]) *Memo[T] {
	return coreripple.NewMemo(fn, opts...)
}

// NewIntSignal creates an IntSignal.
var NewIntSignal = coreripple.NewIntSignal

// NewFloat64Signal creates a Float64Signal.
var NewFloat64Signal = coreripple.NewFloat64Signal

// WithEquals sets a custom equality function for a signal or memo.
func WithEquals[T any](fn func(T, T) bool) SignalOption[T] {
	return coreripple.WithEquals(fn)
}

// NeverEqual makes every write count as a change.
func NeverEqual[T any]() SignalOption[T] {
	return coreripple.NeverEqual[T]()
}

// WithName attaches a label used by runtime hooks and the inspector.
func WithName[T any](name string) SignalOption[T] {
	return coreripple.WithName[T](name)
}

// Persistent marks a signal for snapshot persistence under the given key.
func Persistent[T any](key string) SignalOption[T] {
	return coreripple.Persistent[T](key)
}

// =============================================================================
// Computations and ownership
// =============================================================================

// CreateEffect creates a computation for its side effects and runs it
// immediately; it re-runs when a signal it read changes.
var CreateEffect = coreripple.CreateEffect

// CreateNamedEffect is CreateEffect with a label for hooks and the inspector.
var CreateNamedEffect = coreripple.CreateNamedEffect

// CreateRoot runs fn inside a new manually disposed ownership scope.
func CreateRoot[T any](fn func(dispose func()) T) T {
	return coreripple.CreateRoot(fn)
}

// OnCleanup registers fn to run when the active observer is disposed.
var OnCleanup = coreripple.OnCleanup

// OnError registers an error handler on the active observer.
var OnError = coreripple.OnError

// ErrPanic wraps non-error panic values before they reach OnError handlers.
var ErrPanic = coreripple.ErrPanic

// =============================================================================
// Context
// =============================================================================

// Context carries a value down the ownership tree.
type Context[T any] = coreripple.Context[T]

// CreateContext creates a context with a default value.
func CreateContext[T any](defaultValue T) *Context[T] {
	return coreripple.CreateContext(defaultValue)
}

// UseContext reads a context, sugar for ctx.Get.
func UseContext[T any](ctx *Context[T]) T {
	return coreripple.UseContext(ctx)
}

// =============================================================================
// Batching and tracking control
// =============================================================================

// Batch stages the signal writes inside fn and commits them as one wave.
var Batch = coreripple.Batch

// BatchValue is Batch for a function with a result.
func BatchValue[T any](fn func() T) T {
	return coreripple.BatchValue(fn)
}

// Untrack runs fn with dependency tracking disabled.
func Untrack[T any](fn func() T) T {
	return coreripple.Untrack(fn)
}

// ReleaseContext drops the calling goroutine's execution context.
var ReleaseContext = coreripple.ReleaseContext

// =============================================================================
// Runtime hooks
// =============================================================================

// Hook observes runtime activity; see pkg/ripple.
type Hook = coreripple.Hook

// BaseHook provides no-op defaults for every Hook event.
type BaseHook = coreripple.BaseHook

// NodeInfo identifies a reactive node in hook events.
type NodeInfo = coreripple.NodeInfo

// NodeKind classifies reactive nodes in hook events.
type NodeKind = coreripple.NodeKind

// Node kinds reported in hook events.
const (
	KindSignal = coreripple.KindSignal
	KindMemo   = coreripple.KindMemo
	KindEffect = coreripple.KindEffect
	KindRoot   = coreripple.KindRoot
)

// AddHook attaches a runtime hook and returns its remove function.
var AddHook = coreripple.AddHook

// NewBaseHook creates a named no-op hook for embedding.
var NewBaseHook = coreripple.NewBaseHook

// SetDebug toggles slog debug logging of signal writes and batch commits.
func SetDebug(enabled bool) {
	coreripple.Debug = enabled
}
