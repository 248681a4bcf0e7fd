package ripple

import "encoding/json"

// equalsMode selects how a signal decides whether a write changed anything.
type equalsMode uint8

const (
	// equalsDefault compares with == for common comparable types and
	// reflect.DeepEqual otherwise.
	equalsDefault equalsMode = iota

	// equalsNever treats every write as a change.
	equalsNever

	// equalsCustom delegates to a user-supplied function.
	equalsCustom
)

// equality is the tagged equality policy carried by every signal.
type equality[T any] struct {
	mode equalsMode
	fn   func(T, T) bool
}

// same reports whether a write of next over current should be a no-op.
func (e equality[T]) same(current, next T) bool {
	switch e.mode {
	case equalsNever:
		return false
	case equalsCustom:
		return e.fn(current, next)
	default:
		return defaultEquals(current, next)
	}
}

// SignalOption is a functional option for configuring signals and memos.
type SignalOption[T any] func(*signalConfig[T])

// signalConfig holds creation-time configuration for a signal.
type signalConfig[T any] struct {
	equals     equality[T]
	name       string
	persistKey string
}

// WithEquals sets a custom equality function.
// A write is a no-op when the function reports the next value equal to
// the current one.
//
// Example:
//
//	user := NewSignal(u, WithEquals(func(a, b User) bool { return a.ID == b.ID }))
func WithEquals[T any](fn func(T, T) bool) SignalOption[T] {
	return func(c *signalConfig[T]) {
		c.equals = equality[T]{mode: equalsCustom, fn: fn}
	}
}

// NeverEqual makes every write count as a change, even when the new value
// equals the old one. This is the "equals: false" policy.
func NeverEqual[T any]() SignalOption[T] {
	return func(c *signalConfig[T]) {
		c.equals = equality[T]{mode: equalsNever}
	}
}

// WithName attaches a label used by runtime hooks and the inspector.
func WithName[T any](name string) SignalOption[T] {
	return func(c *signalConfig[T]) {
		c.name = name
	}
}

// Persistent marks the signal for snapshot persistence under the given key.
// Signals without a key are skipped by snapshot registries.
//
// Example:
//
//	volume := NewSignal(0.8, Persistent[float64]("player.volume"))
func Persistent[T any](key string) SignalOption[T] {
	return func(c *signalConfig[T]) {
		c.persistKey = key
	}
}

// applyOptions applies the given options and returns the resulting config.
func applyOptions[T any](opts []SignalOption[T]) signalConfig[T] {
	var cfg signalConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// PersistableSignal is implemented by signals created with Persistent.
// Values round-trip through JSON so a snapshot can be restored in a fresh
// process without knowing the concrete value types.
type PersistableSignal interface {
	// PersistKey returns the persistence key, or empty for unmarked signals.
	PersistKey() string

	// MarshalValue encodes the current value.
	MarshalValue() ([]byte, error)

	// UnmarshalValue decodes data and writes it through the ordinary write
	// path, so dependents of a restored signal re-evaluate.
	UnmarshalValue(data []byte) error
}

// PersistKey returns the persistence key set via Persistent, or "".
func (s *Signal[T]) PersistKey() string {
	return s.persistKey
}

// MarshalValue encodes the current value as JSON.
func (s *Signal[T]) MarshalValue() ([]byte, error) {
	return json.Marshal(s.Peek())
}

// UnmarshalValue decodes a JSON value and writes it through Set.
func (s *Signal[T]) UnmarshalValue(data []byte) error {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	s.Set(value)
	return nil
}
