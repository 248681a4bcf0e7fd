// Package persist snapshots marked signals and restores them across
// process restarts.
//
// Signals opt in with the ripple.Persistent option, a Registry collects
// them, and a Store carries the encoded snapshot. Restoring writes
// values back through the ordinary write path, so dependents of a
// restored signal re-evaluate.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

var (
	// ErrNotFound is returned by stores when no snapshot exists under
	// the requested name.
	ErrNotFound = errors.New("ripple: persist: snapshot not found")

	// ErrNoKey is returned by Track for signals created without the
	// Persistent option.
	ErrNoKey = errors.New("ripple: persist: signal has no persist key")

	// ErrStoreClosed is returned by stores after Close.
	ErrStoreClosed = errors.New("ripple: persist: store is closed")
)

// Store defines the interface for snapshot persistence backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put persists a snapshot under name, overwriting any previous one.
	Put(ctx context.Context, name string, data []byte) error

	// Get retrieves a snapshot by name.
	// Returns ErrNotFound if no snapshot exists under the name.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an
	// error.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error
}

// Snapshot maps persist keys to their encoded values.
type Snapshot map[string]json.RawMessage

// Registry tracks persistable signals and snapshots them as a single
// document.
type Registry struct {
	name string

	mu      sync.RWMutex
	signals map[string]ripple.PersistableSignal
}

// NewRegistry creates a registry whose snapshots are stored under name.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:    name,
		signals: make(map[string]ripple.PersistableSignal),
	}
}

// Name returns the snapshot name used with stores.
func (r *Registry) Name() string { return r.name }

// Track registers signals for snapshotting. Every signal must carry a
// persist key, unique within the registry.
func (r *Registry) Track(signals ...ripple.PersistableSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sig := range signals {
		key := sig.PersistKey()
		if key == "" {
			return ErrNoKey
		}
		if _, exists := r.signals[key]; exists {
			return fmt.Errorf("ripple: persist: duplicate key %q", key)
		}
		r.signals[key] = sig
	}
	return nil
}

// Keys returns the tracked persist keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.signals))
	for key := range r.signals {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot encodes the current value of every tracked signal.
func (r *Registry) Snapshot() (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(Snapshot, len(r.signals))
	for key, sig := range r.signals {
		data, err := sig.MarshalValue()
		if err != nil {
			return nil, fmt.Errorf("ripple: persist: encode %q: %w", key, err)
		}
		snap[key] = data
	}
	return snap, nil
}

// Restore writes snapshot values back into the tracked signals. All
// writes apply in one batch, so a computation depending on several
// restored signals settles once. Snapshot keys with no tracked signal
// are skipped; tracked signals missing from the snapshot keep their
// current value.
func (r *Registry) Restore(snap Snapshot) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	ripple.Batch(func() {
		for key, sig := range r.signals {
			data, ok := snap[key]
			if !ok {
				continue
			}
			if err := sig.UnmarshalValue(data); err != nil {
				errs = append(errs, fmt.Errorf("ripple: persist: decode %q: %w", key, err))
			}
		}
	})
	return errors.Join(errs...)
}

// Save snapshots the registry and writes it to the store.
func (r *Registry) Save(ctx context.Context, store Store) error {
	snap, err := r.Snapshot()
	if err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return store.Put(ctx, r.name, data)
}

// Load reads the registry's snapshot from the store and restores it.
// Returns ErrNotFound when the store has no snapshot yet.
func (r *Registry) Load(ctx context.Context, store Store) error {
	data, err := store.Get(ctx, r.name)
	if err != nil {
		return err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("ripple: persist: decode snapshot %q: %w", r.name, err)
	}
	return r.Restore(snap)
}
