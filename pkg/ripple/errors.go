package ripple

import (
	"errors"
	"fmt"
)

// ErrPanic wraps non-error panic values before they reach OnError handlers.
// Handlers can distinguish them from ordinary errors with errors.Is:
//
//	OnError(func(err error) {
//	    if errors.Is(err, ripple.ErrPanic) {
//	        // a tracked function panicked with a non-error value
//	    }
//	})
var ErrPanic = errors.New("ripple: panic")

// errorHandlersKey is the reserved context key under which OnError stores
// handler lists. Allocated once from the same counter as every other key.
var errorHandlersKey = nextID()

// OnError registers fn as an error handler on the active observer.
//
// When a tracked function panics, the chain from the panicking node to the
// outermost parent is searched; the nearest node with handlers absorbs the
// error and every handler on that node runs. Errors do not continue to
// outer handlers once absorbed. Without any handler in the chain the panic
// resumes to the caller.
//
// Without an active observer this is a no-op.
//
// Example:
//
//	CreateRoot(func(dispose func()) any {
//	    OnError(func(err error) { log.Println("recovered:", err) })
//	    CreateEffect(func() {
//	        decode(input.Get()) // a panic here lands in the handler
//	    })
//	    return nil
//	})
func OnError(fn func(error)) {
	ec := currentContext()
	o := ec.observer
	if o == nil || fn == nil {
		return
	}
	var handlers []func(error)
	if v, ok := o.ownValue(errorHandlersKey); ok {
		handlers = v.([]func(error))
	}
	o.setValue(errorHandlersKey, append(handlers, fn))
}

// routeError walks from obs toward the tree top and invokes the first
// non-empty handler list it finds. Reports whether the error was absorbed.
func routeError(obs *observer, err error) bool {
	for node := obs; node != nil; node = node.parent {
		v, ok := node.ownValue(errorHandlersKey)
		if !ok {
			continue
		}
		handlers, _ := v.([]func(error))
		if len(handlers) == 0 {
			continue
		}
		for _, handle := range handlers {
			handle(err)
		}
		return true
	}
	return false
}

// panicError converts a recovered panic value into an error for handlers.
// Error values pass through unchanged.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPanic, r)
}
