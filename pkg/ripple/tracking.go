package ripple

import (
	"runtime"
	"sync"
)

// executionContext holds the reactive state for a goroutine.
// Each goroutine has its own context, so independent graphs on separate
// goroutines never share tracking state.
type executionContext struct {
	// observer is the node whose evaluation is currently on the stack.
	// New computations, cleanups, error handlers and context values attach
	// to it. nil at the top level.
	observer *observer

	// tracking says whether signal reads register dependency edges.
	// Untrack flips this off while keeping the observer installed.
	tracking bool

	// batch is the active staging buffer, or nil outside Batch.
	// While set, signal writes stage into it instead of propagating.
	batch *batchBuffer
}

// executionContexts stores per-goroutine execution contexts.
// Using sync.Map for concurrent access from multiple goroutines.
var executionContexts sync.Map

// goroutineID returns a unique identifier for the current goroutine.
// This uses the runtime stack to extract the goroutine ID.
// Note: This is an implementation detail and should not be relied upon externally.
func goroutineID() uint64 {
	// Use a buffer to read the stack
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	// Parse the ID from the stack trace
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentContext returns the execution context for the current goroutine.
// If no context exists, creates a new one with tracking disabled.
func currentContext() *executionContext {
	gid := goroutineID()

	if ec, ok := executionContexts.Load(gid); ok {
		return ec.(*executionContext)
	}

	ec := &executionContext{}
	executionContexts.Store(gid, ec)
	return ec
}

// ReleaseContext removes the execution context for the current goroutine.
// Optional: contexts are lightweight and reused, but a goroutine that built
// a large graph and is about to exit can call this to drop the reference.
func ReleaseContext() {
	executionContexts.Delete(goroutineID())
}

// runScoped executes body with obs installed as the active observer and the
// given tracking flag, restoring the previous pair on every exit path.
//
// If body panics, the panic is routed before the context is restored: the
// chain from obs to the outermost parent is searched for error handlers
// registered via OnError, the nearest non-empty handler list absorbs the
// error, and without one the panic resumes unchanged.
func runScoped(body func(), obs *observer, tracking bool) {
	ec := currentContext()
	prevObserver, prevTracking := ec.observer, ec.tracking
	ec.observer, ec.tracking = obs, tracking

	// Registered first so it runs after the recovery defer below:
	// handlers observe the scope they were registered under.
	defer func() {
		ec.observer, ec.tracking = prevObserver, prevTracking
	}()
	defer func() {
		if r := recover(); r != nil {
			err := panicError(r)
			if !routeError(obs, err) {
				emitErrorRouted(obs.info(), err, false)
				panic(r)
			}
			emitErrorRouted(obs.info(), err, true)
		}
	}()

	body()
}
