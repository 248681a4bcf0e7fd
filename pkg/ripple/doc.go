// Package ripple is a minimal fine-grained reactive runtime.
//
// The runtime is a graph of observable value cells (signals) and derived
// computations that re-evaluate automatically when their dependencies
// change. Propagation is glitch-free: no computation ever observes a mix
// of stale and fresh dependency values, and each affected node recomputes
// at most once per update wave.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (registers a dependency when tracked)
//	count.Set(5)          // Write (propagates to dependents)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a derived computation exposing its result as a signal:
//
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//	value := doubled.Get()
//
// CreateEffect runs side effects when dependencies change:
//
//	CreateEffect(func() {
//	    fmt.Println("Count is:", count.Get())
//	})
//
// CreateRoot opens a manually disposed ownership scope:
//
//	CreateRoot(func(dispose func()) int {
//	    CreateEffect(func() { ... })
//	    OnCleanup(func() { ... })
//	    dispose() // tears down everything created in this scope
//	    return 0
//	})
//
// # Batching
//
// Multiple signal writes can be staged and committed as one wave:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})  // Dependents of both settle exactly once
//
// # Propagation
//
// Writes run a counter-based two-phase wave over the dependent graph:
// every transitive dependent is first marked waiting, then released.
// A computation re-runs only when its waiting count returns to zero and
// at least one upstream value actually changed, which is what keeps a
// diamond-shaped graph at one re-evaluation per node per wave. Reading
// a memo that is mid-wave forces it to settle first, so readers never
// observe a derived value that is behind its own dependencies.
//
// # Concurrency
//
// A reactive graph belongs to the goroutine that created it. The tracking
// state is per-goroutine, so independent graphs on different goroutines do
// not interfere, but a single graph must not be mutated from several
// goroutines at once.
package ripple
