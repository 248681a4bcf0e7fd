package ripple

import (
	"sync"
	"sync/atomic"
	"time"
)

// NodeKind classifies reactive nodes in hook events.
type NodeKind string

const (
	KindSignal NodeKind = "signal"
	KindMemo   NodeKind = "memo"
	KindEffect NodeKind = "effect"
	KindRoot   NodeKind = "root"
)

// NodeInfo identifies a reactive node in hook events. ParentID is the
// owning observer for computations and roots, and the owning computation
// for memo result signals; zero when there is none.
type NodeInfo struct {
	ID       uint64
	Name     string
	Kind     NodeKind
	ParentID uint64
}

// Hook observes runtime activity. Implementations receive events
// synchronously on the goroutine running the graph and must not write
// signals from inside a callback.
//
// Embed BaseHook to implement only the events of interest.
type Hook interface {
	// Name identifies the hook in diagnostics.
	Name() string

	// NodeCreated fires when a signal, memo, effect or root is created.
	NodeCreated(info NodeInfo)

	// NodeDisposed fires when an observer leaves the graph for good.
	// The teardown a computation performs at the start of every re-run is
	// not reported; only the re-run's children count as disposed.
	NodeDisposed(info NodeInfo)

	// SignalWrite fires after a value was assigned, before propagation.
	// Staged batch writes fire when the batch commits.
	SignalWrite(info NodeInfo, oldValue, newValue any)

	// ComputationRan fires after a computation evaluated.
	ComputationRan(info NodeInfo, d time.Duration)

	// BatchCommitted fires after a batch applied its staged writes.
	BatchCommitted(staged int, d time.Duration)

	// ErrorRouted fires when a panic from a tracked function was routed.
	// handled says whether an OnError handler absorbed it.
	ErrorRouted(info NodeInfo, err error, handled bool)
}

// BaseHook provides no-op defaults for every Hook event.
type BaseHook struct {
	name string
}

// NewBaseHook creates a base hook with the given name.
func NewBaseHook(name string) BaseHook {
	return BaseHook{name: name}
}

func (h *BaseHook) Name() string                           { return h.name }
func (h *BaseHook) NodeCreated(NodeInfo)                   {}
func (h *BaseHook) NodeDisposed(NodeInfo)                  {}
func (h *BaseHook) SignalWrite(NodeInfo, any, any)         {}
func (h *BaseHook) ComputationRan(NodeInfo, time.Duration) {}
func (h *BaseHook) BatchCommitted(int, time.Duration)      {}
func (h *BaseHook) ErrorRouted(NodeInfo, error, bool)      {}

// hookRegistration pairs a hook with a removable identity.
type hookRegistration struct {
	id   uint64
	hook Hook
}

// hookRegistry is process-wide: metrics, tracing and the inspector attach
// once at startup and observe every graph.
var hookRegistry struct {
	mu    sync.RWMutex
	list  []hookRegistration
	count atomic.Int32
}

// AddHook attaches a hook and returns its remove function.
// Attach hooks before building graphs; events are delivered synchronously.
func AddHook(h Hook) (remove func()) {
	id := nextID()

	hookRegistry.mu.Lock()
	hookRegistry.list = append(hookRegistry.list, hookRegistration{id: id, hook: h})
	hookRegistry.count.Store(int32(len(hookRegistry.list)))
	hookRegistry.mu.Unlock()

	return func() {
		hookRegistry.mu.Lock()
		defer hookRegistry.mu.Unlock()
		for i, reg := range hookRegistry.list {
			if reg.id == id {
				hookRegistry.list = append(hookRegistry.list[:i], hookRegistry.list[i+1:]...)
				break
			}
		}
		hookRegistry.count.Store(int32(len(hookRegistry.list)))
	}
}

// hooksActive reports whether any hook is attached, without locking.
func hooksActive() bool {
	return hookRegistry.count.Load() > 0
}

// snapshotHooks copies the registration list for lock-free delivery.
func snapshotHooks() []hookRegistration {
	hookRegistry.mu.RLock()
	defer hookRegistry.mu.RUnlock()
	list := make([]hookRegistration, len(hookRegistry.list))
	copy(list, hookRegistry.list)
	return list
}

func emitNodeCreated(info NodeInfo) {
	if !hooksActive() {
		return
	}
	for _, reg := range snapshotHooks() {
		reg.hook.NodeCreated(info)
	}
}

func emitNodeDisposed(info NodeInfo) {
	if !hooksActive() {
		return
	}
	for _, reg := range snapshotHooks() {
		reg.hook.NodeDisposed(info)
	}
}

func emitSignalWrite(info NodeInfo, oldValue, newValue any) {
	if !hooksActive() {
		return
	}
	for _, reg := range snapshotHooks() {
		reg.hook.SignalWrite(info, oldValue, newValue)
	}
}

func emitComputationRan(info NodeInfo, d time.Duration) {
	if !hooksActive() {
		return
	}
	for _, reg := range snapshotHooks() {
		reg.hook.ComputationRan(info, d)
	}
}

func emitBatchCommitted(staged int, d time.Duration) {
	if !hooksActive() {
		return
	}
	for _, reg := range snapshotHooks() {
		reg.hook.BatchCommitted(staged, d)
	}
}

func emitErrorRouted(info NodeInfo, err error, handled bool) {
	if !hooksActive() {
		return
	}
	for _, reg := range snapshotHooks() {
		reg.hook.ErrorRouted(info, err, handled)
	}
}
