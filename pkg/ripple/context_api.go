package ripple

// Context carries a value down the ownership tree without threading it
// through function arguments. Set writes into the active observer's own
// scope; Get walks the parent chain and falls back to the default.
//
// Example:
//
//	var theme = CreateContext("light")
//
//	CreateRoot(func(dispose func()) any {
//	    theme.Set("dark")
//	    CreateEffect(func() {
//	        render(theme.Get()) // "dark"
//	    })
//	    return nil
//	})
type Context[T any] struct {
	// key uniquely identifies this context in observer scopes.
	key uint64

	// defaultValue is returned when no ancestor scope holds the key.
	defaultValue T
}

// CreateContext creates a new context with the given default value.
func CreateContext[T any](defaultValue T) *Context[T] {
	return &Context[T]{
		key:          nextID(),
		defaultValue: defaultValue,
	}
}

// Get returns the value from the nearest scope that set this context,
// or the default when no ancestor set it or no observer is active.
func (c *Context[T]) Get() T {
	ec := currentContext()
	if ec.observer != nil {
		if v, ok := ec.observer.lookup(c.key); ok {
			if typed, ok := v.(T); ok {
				return typed
			}
		}
	}
	return c.defaultValue
}

// Set stores a value in the active observer's own scope. Ancestor scopes
// are never mutated; without an active observer this is a no-op.
func (c *Context[T]) Set(value T) {
	ec := currentContext()
	if ec.observer == nil {
		return
	}
	ec.observer.setValue(c.key, value)
}

// Default returns the default value for this context.
func (c *Context[T]) Default() T {
	return c.defaultValue
}

// ID returns the opaque key identifying this context.
func (c *Context[T]) ID() uint64 {
	return c.key
}

// UseContext reads a context, sugar for ctx.Get.
func UseContext[T any](ctx *Context[T]) T {
	return ctx.Get()
}
