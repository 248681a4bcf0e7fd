package ripple

// CreateEffect creates a computation for its side effects and runs it
// immediately. The effect re-runs whenever a signal it read changes.
//
// The dependency set is dynamic: every run starts by disposing the
// previous run's subscriptions, children and cleanups, so only signals
// actually read by the latest run trigger the next one.
//
// Example:
//
//	name := NewSignal("world")
//	CreateEffect(func() {
//	    fmt.Printf("hello %s\n", name.Get())
//	})
//	name.Set("reactive") // prints again
func CreateEffect(fn func()) {
	newComputation(func() struct{} {
		fn()
		return struct{}{}
	}, KindEffect, nil)
}

// CreateNamedEffect is CreateEffect with a label for hook events and the
// inspector.
func CreateNamedEffect(name string, fn func()) {
	newComputation(func() struct{} {
		fn()
		return struct{}{}
	}, KindEffect, []SignalOption[struct{}]{WithName[struct{}](name)})
}
