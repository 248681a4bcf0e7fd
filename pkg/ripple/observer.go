package ripple

// observer is the base node of the ownership tree. Computations and roots
// both build on it: it owns child observers, cleanup callbacks and a
// context scope, and remembers which signals the node currently reads.
type observer struct {
	id   uint64
	name string

	// parent is a non-owning back-reference used for context and error
	// lookup. nil at the top of a tree.
	parent *observer

	// children are the owned observers created during the last evaluation,
	// in registration order. Roots never appear here.
	children []*observer

	// cleanups run on disposal, in registration order.
	cleanups []func()

	// ctx stores context values for this scope only; lookups fall back to
	// the parent chain.
	ctx map[uint64]any

	// sources are the signals this node currently depends on, kept so
	// disposal can sever the mutual edges.
	sources []*signalCore

	// comp tags this node as a re-runnable computation. nil for roots.
	// Signal reads only register edges when the active observer carries it.
	comp *computation

	// root marks a manually managed lifetime boundary.
	root bool
}

// addChild registers an owned child observer, deduplicated by ID.
func (o *observer) addChild(child *observer) {
	for _, existing := range o.children {
		if existing.id == child.id {
			return
		}
	}
	o.children = append(o.children, child)
}

// removeChild detaches a child observer, preserving order.
func (o *observer) removeChild(child *observer) {
	for i, existing := range o.children {
		if existing.id == child.id {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// addSource records a signal this node reads, deduplicated by ID.
func (o *observer) addSource(sc *signalCore) {
	for _, existing := range o.sources {
		if existing.id == sc.id {
			return
		}
	}
	o.sources = append(o.sources, sc)
}

// dispose tears the node out of the graph for good. Safe to call
// repeatedly; a disposed node is simply empty.
func (o *observer) dispose() {
	o.teardown()
	emitNodeDisposed(o.info())
}

// teardown severs the node from the graph: children first, then the
// signal edges, then the registered cleanups. Internal state is cleared
// before the cleanups run, so a panicking cleanup cannot leave the node
// half-linked. Computations call this directly at the start of every
// re-run, which is what makes the dependency set dynamic.
func (o *observer) teardown() {
	children := make([]*observer, len(o.children))
	copy(children, o.children)
	for _, child := range children {
		child.dispose()
	}

	for _, src := range o.sources {
		src.removeObserver(o.comp)
	}

	// A node torn down mid-wave still owes its dependents the release
	// half of the wave. Settle the counter here so the trailing decrement
	// from the wave lands on the zero guard instead of re-running a dead
	// node, and release downstream so dependents do not wait forever.
	if c := o.comp; c != nil && c.waiting > 0 {
		c.waiting = 0
		c.fresh = false
		if c.resultCore != nil {
			c.resultCore.propagateStale(-1, false)
		}
	}

	cleanups := o.cleanups
	o.cleanups = nil
	o.ctx = nil
	o.children = nil
	o.sources = nil

	for _, cleanup := range cleanups {
		cleanup()
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}
}

// lookup walks the parent chain for a context value, starting with this
// node's own scope. The second result reports whether any scope held the
// key; defaults are the caller's concern.
func (o *observer) lookup(key uint64) (any, bool) {
	for node := o; node != nil; node = node.parent {
		if node.ctx != nil {
			if v, ok := node.ctx[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// ownValue reads a key from this node's own scope only.
func (o *observer) ownValue(key uint64) (any, bool) {
	if o.ctx == nil {
		return nil, false
	}
	v, ok := o.ctx[key]
	return v, ok
}

// setValue writes a context value into this node's own scope.
// Ancestor scopes are never mutated.
func (o *observer) setValue(key uint64, value any) {
	if o.ctx == nil {
		o.ctx = make(map[uint64]any)
	}
	o.ctx[key] = value
}

// kind reports how this node should be described to hooks.
func (o *observer) kind() NodeKind {
	if o.comp != nil {
		return o.comp.kindTag
	}
	return KindRoot
}

// info describes this node for runtime hooks. Safe on a nil receiver,
// which stands for the top-level scope.
func (o *observer) info() NodeInfo {
	if o == nil {
		return NodeInfo{}
	}
	var parentID uint64
	if o.parent != nil {
		parentID = o.parent.id
	}
	return NodeInfo{ID: o.id, Name: o.name, Kind: o.kind(), ParentID: parentID}
}

// OnCleanup registers fn to run when the active observer is disposed.
// Computations dispose at the start of every re-run, so the callback also
// fires between runs. Without an active observer this is a no-op.
//
// Example:
//
//	CreateEffect(func() {
//	    ch := subscribe(topic.Get())
//	    OnCleanup(func() { ch.Close() })
//	})
func OnCleanup(fn func()) {
	ec := currentContext()
	if ec.observer == nil || fn == nil {
		return
	}
	ec.observer.cleanups = append(ec.observer.cleanups, fn)
}
