package ripple

import "testing"

func TestMemoBasic(t *testing.T) {
	count := NewSignal(2)
	doubled := NewMemo(func() int { return count.Get() * 2 })

	if doubled.Get() != 4 {
		t.Errorf("expected 4, got %d", doubled.Get())
	}

	count.Set(5)
	if doubled.Get() != 10 {
		t.Errorf("expected 10, got %d", doubled.Get())
	}
}

func TestMemoRecomputeCount(t *testing.T) {
	count := NewSignal(1)
	computations := 0
	doubled := NewMemo(func() int {
		computations++
		return count.Get() * 2
	})

	if computations != 1 {
		t.Fatalf("expected 1 computation at creation, got %d", computations)
	}

	count.Set(2)
	if doubled.Get() != 4 {
		t.Errorf("expected 4, got %d", doubled.Get())
	}
	if computations != 2 {
		t.Errorf("expected 2 computations, got %d", computations)
	}

	// Equal write: the memo body must not run again.
	count.Set(2)
	if computations != 2 {
		t.Errorf("equal write recomputed the memo, got %d computations", computations)
	}
	count.Update(func(n int) int { return n })
	if computations != 2 {
		t.Errorf("identity update recomputed the memo, got %d computations", computations)
	}

	// Repeated reads never recompute.
	_ = doubled.Get()
	_ = doubled.Get()
	if computations != 2 {
		t.Errorf("reads recomputed the memo, got %d computations", computations)
	}
}

func TestMemoChain(t *testing.T) {
	price := NewSignal(100.0)
	taxRate := NewSignal(0.08)

	taxed := NewMemo(func() float64 {
		return price.Get() * (1 + taxRate.Get())
	})
	rounded := NewMemo(func() int {
		return int(taxed.Get())
	})

	if rounded.Get() != 108 {
		t.Errorf("expected 108, got %d", rounded.Get())
	}

	price.Set(200.0)
	if rounded.Get() != 216 {
		t.Errorf("expected 216, got %d", rounded.Get())
	}
}

func TestMemoEqualResultStopsPropagation(t *testing.T) {
	count := NewSignal(1)
	parity := NewMemo(func() int { return count.Get() % 2 })

	runs := 0
	CreateEffect(func() {
		runs++
		_ = parity.Get()
	})
	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	// 1 -> 3 keeps parity at 1; the memo recomputes but its result write
	// is equal, so the effect must not run again.
	count.Set(3)
	if runs != 1 {
		t.Errorf("unchanged memo result should not re-run dependents, got %d runs", runs)
	}

	count.Set(4)
	if runs != 2 {
		t.Errorf("expected 2 runs after parity change, got %d", runs)
	}
}

func TestDiamondRunsEffectOnce(t *testing.T) {
	//      source
	//      /    \
	//   left    right
	//      \    /
	//      effect
	source := NewSignal(1)

	leftRuns := 0
	left := NewMemo(func() int {
		leftRuns++
		return source.Get() * 2
	})

	rightRuns := 0
	right := NewMemo(func() int {
		rightRuns++
		return source.Get() * 3
	})

	effectRuns := 0
	var lastSum int
	CreateEffect(func() {
		effectRuns++
		lastSum = left.Get() + right.Get()
	})

	if lastSum != 5 {
		t.Fatalf("expected initial sum 5, got %d", lastSum)
	}
	if effectRuns != 1 {
		t.Fatalf("expected 1 initial effect run, got %d", effectRuns)
	}

	source.Set(2)

	if lastSum != 10 {
		t.Errorf("expected sum 10, got %d", lastSum)
	}
	if leftRuns != 2 || rightRuns != 2 {
		t.Errorf("expected each memo to run twice, got left=%d right=%d", leftRuns, rightRuns)
	}
	if effectRuns != 2 {
		t.Errorf("diamond must settle with one effect run, got %d", effectRuns)
	}
}

func TestGlitchFreedom(t *testing.T) {
	source := NewSignal(1)
	scaled := NewMemo(func() int { return source.Get() * 10 })

	mismatches := 0
	CreateEffect(func() {
		// Any observable state must satisfy scaled == source*10.
		if scaled.Get() != source.Get()*10 {
			mismatches++
		}
	})

	source.Set(2)
	source.Set(3)
	Batch(func() {
		source.Set(4)
		source.Set(5)
	})

	if mismatches != 0 {
		t.Errorf("observed %d inconsistent states", mismatches)
	}
}

func TestMemoForcedRefreshOnRead(t *testing.T) {
	source := NewSignal(1)

	var scaled *Memo[int]
	var seen int
	// This effect sits before the memo in the source's observer list, so
	// during a wave it settles first and reads the memo while the memo is
	// still waiting. The read must force the memo to update.
	CreateEffect(func() {
		_ = source.Get()
		if scaled != nil {
			seen = Untrack(func() int { return scaled.Get() })
		}
	})
	scaled = NewMemo(func() int { return source.Get() * 2 })

	source.Set(3)
	if seen != 6 {
		t.Errorf("expected forced refresh to yield 6, got %d", seen)
	}

	source.Set(10)
	if seen != 20 {
		t.Errorf("expected forced refresh to yield 20, got %d", seen)
	}
}

func TestDynamicDependencies(t *testing.T) {
	useFirst := NewSignal(true)
	first := NewSignal("a")
	second := NewSignal("b")

	runs := 0
	var last string
	CreateEffect(func() {
		runs++
		if useFirst.Get() {
			last = first.Get()
		} else {
			last = second.Get()
		}
	})

	if last != "a" || runs != 1 {
		t.Fatalf("expected initial run with %q, got %q after %d runs", "a", last, runs)
	}

	// second is not a dependency yet.
	second.Set("b2")
	if runs != 1 {
		t.Errorf("untaken branch must not trigger, got %d runs", runs)
	}

	useFirst.Set(false)
	if last != "b2" || runs != 2 {
		t.Fatalf("expected %q after branch flip, got %q after %d runs", "b2", last, runs)
	}

	// After one re-run the first signal is unsubscribed.
	first.Set("a2")
	if runs != 2 {
		t.Errorf("stale branch must not trigger after flip, got %d runs", runs)
	}

	second.Set("b3")
	if last != "b3" || runs != 3 {
		t.Errorf("expected %q, got %q after %d runs", "b3", last, runs)
	}
}

func TestMemoDynamicDependencies(t *testing.T) {
	gate := NewSignal(false)
	expensive := NewSignal(100)

	computations := 0
	result := NewMemo(func() int {
		computations++
		if !gate.Get() {
			return 0
		}
		return expensive.Get()
	})

	if result.Get() != 0 || computations != 1 {
		t.Fatalf("expected 0 after 1 computation, got %d after %d", result.Get(), computations)
	}

	// Not read while the gate is closed.
	expensive.Set(200)
	if computations != 1 {
		t.Errorf("closed gate must not recompute, got %d computations", computations)
	}

	gate.Set(true)
	if result.Get() != 200 {
		t.Errorf("expected 200, got %d", result.Get())
	}

	expensive.Set(300)
	if result.Get() != 300 {
		t.Errorf("expected 300, got %d", result.Get())
	}
}

func TestMemoWithEqualsOption(t *testing.T) {
	words := NewSignal([]string{"b", "a"})

	sortedRuns := 0
	// The memo's own result equality: slices with equal first element count
	// as unchanged downstream.
	head := NewMemo(func() string {
		sortedRuns++
		w := words.Get()
		if len(w) == 0 {
			return ""
		}
		return w[0]
	}, WithEquals(func(a, b string) bool { return a == b }))

	runs := 0
	CreateEffect(func() {
		runs++
		_ = head.Get()
	})

	words.Set([]string{"b", "c"})
	if sortedRuns != 2 {
		t.Fatalf("expected memo to recompute, got %d", sortedRuns)
	}
	if runs != 1 {
		t.Errorf("equal memo result must not re-run the effect, got %d runs", runs)
	}
}

func TestMemoPeek(t *testing.T) {
	count := NewSignal(1)
	doubled := NewMemo(func() int { return count.Get() * 2 })

	runs := 0
	CreateEffect(func() {
		runs++
		_ = doubled.Peek()
	})

	count.Set(5)
	if runs != 1 {
		t.Errorf("Peek should not register a dependency, got %d runs", runs)
	}
	// Peek still reflects the settled value.
	if doubled.Peek() != 10 {
		t.Errorf("expected 10, got %d", doubled.Peek())
	}
}
