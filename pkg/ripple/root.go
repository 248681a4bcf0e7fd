package ripple

// CreateRoot runs fn inside a new manually managed ownership scope and
// returns fn's result. The dispose callback handed to fn tears down every
// computation, cleanup and child scope created inside.
//
// A root records the active observer as its parent for context and error
// lookup but never registers as a child, so disposing or re-running the
// parent leaves the root alive. This makes roots the unit of manual
// lifetime management; everything else is reclaimed through its ancestors.
//
// Example:
//
//	stop := CreateRoot(func(dispose func()) func() {
//	    ticker := NewSignal(0)
//	    CreateEffect(func() { log.Println(ticker.Get()) })
//	    return dispose
//	})
//	stop() // the effect never fires again
func CreateRoot[T any](fn func(dispose func()) T) T {
	ec := currentContext()
	r := &observer{
		id:     nextID(),
		parent: ec.observer,
		root:   true,
	}
	emitNodeCreated(r.info())

	var value T
	runScoped(func() { value = fn(r.dispose) }, r, false)
	return value
}
