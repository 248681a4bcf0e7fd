package ripple

// IntSignal wraps Signal[int] with convenience methods for counters.
type IntSignal struct {
	*Signal[int]
}

// NewIntSignal creates a new IntSignal with the given initial value.
func NewIntSignal(initial int, opts ...SignalOption[int]) *IntSignal {
	return &IntSignal{NewSignal(initial, opts...)}
}

// Inc increments the value by 1 and returns the new value.
func (s *IntSignal) Inc() int {
	return s.Update(func(n int) int { return n + 1 })
}

// Dec decrements the value by 1 and returns the new value.
func (s *IntSignal) Dec() int {
	return s.Update(func(n int) int { return n - 1 })
}

// Add adds n and returns the new value.
func (s *IntSignal) Add(n int) int {
	return s.Update(func(v int) int { return v + n })
}

// Sub subtracts n and returns the new value.
func (s *IntSignal) Sub(n int) int {
	return s.Update(func(v int) int { return v - n })
}

// Float64Signal wraps Signal[float64] with convenience methods.
type Float64Signal struct {
	*Signal[float64]
}

// NewFloat64Signal creates a new Float64Signal with the given initial value.
func NewFloat64Signal(initial float64, opts ...SignalOption[float64]) *Float64Signal {
	return &Float64Signal{NewSignal(initial, opts...)}
}

// Add adds n and returns the new value.
func (s *Float64Signal) Add(n float64) float64 {
	return s.Update(func(v float64) float64 { return v + n })
}

// Sub subtracts n and returns the new value.
func (s *Float64Signal) Sub(n float64) float64 {
	return s.Update(func(v float64) float64 { return v - n })
}

// Scale multiplies by n and returns the new value.
func (s *Float64Signal) Scale(n float64) float64 {
	return s.Update(func(v float64) float64 { return v * n })
}
