package ripple

import "testing"

func TestBatchCoalesces(t *testing.T) {
	first := NewSignal("Ada")
	last := NewSignal("Byron")

	runs := 0
	var full string
	CreateEffect(func() {
		runs++
		full = first.Get() + " " + last.Get()
	})
	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	Batch(func() {
		first.Set("Ada")
		last.Set("Lovelace")
		first.Set("Augusta Ada")
	})

	if runs != 2 {
		t.Errorf("expected the shared dependent to run once per batch, got %d runs", runs)
	}
	if full != "Augusta Ada Lovelace" {
		t.Errorf("expected %q, got %q", "Augusta Ada Lovelace", full)
	}
}

func TestBatchReadsSeePreBatchValues(t *testing.T) {
	count := NewSignal(1)

	var during int
	Batch(func() {
		count.Set(10)
		during = count.Get()
	})

	if during != 1 {
		t.Errorf("reads inside the batch must see the pre-batch value, got %d", during)
	}
	if count.Get() != 10 {
		t.Errorf("expected committed value 10, got %d", count.Get())
	}
}

func TestBatchLastWriteWins(t *testing.T) {
	count := NewSignal(0)
	var seen []int

	CreateEffect(func() {
		seen = append(seen, count.Get())
	})

	Batch(func() {
		count.Set(1)
		count.Set(2)
		count.Set(3)
	})

	// Intermediate staged values are never observable.
	if len(seen) != 2 || seen[1] != 3 {
		t.Errorf("expected seen [0 3], got %v", seen)
	}
}

func TestBatchNestedFlattens(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)

	runs := 0
	CreateEffect(func() {
		runs++
		_ = a.Get() + b.Get()
	})

	Batch(func() {
		a.Set(1)
		Batch(func() {
			b.Set(2)
		})
		// The inner batch stages into the outer buffer; nothing has
		// committed yet.
		if a.Get() != 0 || b.Get() != 0 {
			t.Error("inner batch must not commit before the outer one")
		}
	})

	if runs != 2 {
		t.Errorf("expected one combined commit, got %d runs", runs)
	}
	if a.Get() != 1 || b.Get() != 2 {
		t.Errorf("expected committed values 1 and 2, got %d and %d", a.Get(), b.Get())
	}
}

func TestBatchValueReturns(t *testing.T) {
	count := NewSignal(2)

	got := BatchValue(func() int {
		count.Set(5)
		return count.Get() * 100
	})

	// The body still reads the pre-batch value.
	if got != 200 {
		t.Errorf("expected 200, got %d", got)
	}
	if count.Get() != 5 {
		t.Errorf("expected committed value 5, got %d", count.Get())
	}
}

func TestBatchEqualFinalValueIsNoOp(t *testing.T) {
	count := NewSignal(1)
	runs := 0

	CreateEffect(func() {
		runs++
		_ = count.Get()
	})

	// Equality is checked against the unstaged current value, so a write
	// equal to it never stages at all.
	Batch(func() {
		count.Set(1)
	})

	if runs != 1 {
		t.Errorf("expected no runs for an equal staged write, got %d", runs)
	}
}

func TestBatchStagedWriteStaysWhenLaterWriteEqualsCurrent(t *testing.T) {
	count := NewSignal(0)

	Batch(func() {
		count.Set(1)
		// Equal to the unstaged current value, so this write is dropped and
		// the earlier staged value survives.
		count.Set(0)
	})

	if count.Get() != 1 {
		t.Errorf("expected staged 1 to commit, got %d", count.Get())
	}
}

func TestBatchTransformerSeesUnstagedValue(t *testing.T) {
	count := NewSignal(0)

	Batch(func() {
		count.Update(func(n int) int { return n + 1 })
		count.Update(func(n int) int { return n + 1 })
	})

	// Transformer writes inside a batch are applied to the unstaged current
	// value, so both increments compute 0+1 and the last one wins.
	if count.Get() != 1 {
		t.Errorf("expected 1, got %d", count.Get())
	}
}

func TestBatchCommitsWhenBodyPanics(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	CreateEffect(func() {
		runs++
		_ = count.Get()
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to resume after the commit")
			}
		}()
		Batch(func() {
			count.Set(7)
			panic("boom")
		})
	}()

	if count.Get() != 7 {
		t.Errorf("expected staged write to commit despite the panic, got %d", count.Get())
	}
	if runs != 2 {
		t.Errorf("expected dependents to run on the panic-path commit, got %d runs", runs)
	}
}

func TestBatchSetReturnsPreviousValue(t *testing.T) {
	count := NewSignal(3)

	Batch(func() {
		if got := count.Set(9); got != 3 {
			t.Errorf("staged Set must return the previous value, got %d", got)
		}
	})

	if count.Get() != 9 {
		t.Errorf("expected 9 after commit, got %d", count.Get())
	}
}

func TestBatchMemoSettlesOnce(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	computations := 0
	sum := NewMemo(func() int {
		computations++
		return a.Get() + b.Get()
	})

	Batch(func() {
		a.Set(10)
		b.Set(20)
	})

	if sum.Get() != 30 {
		t.Errorf("expected 30, got %d", sum.Get())
	}
	if computations != 2 {
		t.Errorf("expected one recompute for the whole batch, got %d", computations)
	}
}
