package ripple

import "testing"

func TestUntrackSuppressesDependency(t *testing.T) {
	tracked := NewSignal(0)
	untracked := NewSignal(0)

	runs := 0
	var sum int
	CreateEffect(func() {
		runs++
		sum = tracked.Get() + Untrack(func() int { return untracked.Get() })
	})

	untracked.Set(10)
	if runs != 1 {
		t.Fatalf("untracked read must not subscribe, got %d runs", runs)
	}

	// The next tracked change picks up the untracked signal's new value.
	tracked.Set(1)
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}
	if sum != 11 {
		t.Errorf("expected 11, got %d", sum)
	}
}

func TestUntrackKeepsObserverInstalled(t *testing.T) {
	count := NewSignal(0)
	cleanups := 0

	CreateEffect(func() {
		_ = count.Get()
		Untrack(func() any {
			// Still attached to the effect even with tracking off.
			OnCleanup(func() { cleanups++ })
			return nil
		})
	})

	count.Set(1)
	if cleanups != 1 {
		t.Errorf("cleanup registered under Untrack must fire on re-run, got %d", cleanups)
	}
}

func TestUntrackNests(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	runs := 0
	CreateEffect(func() {
		runs++
		Untrack(func() int {
			return Untrack(func() int { return a.Get() }) + b.Get()
		})
	})

	a.Set(10)
	b.Set(20)
	if runs != 1 {
		t.Errorf("nested untrack must stay untracked, got %d runs", runs)
	}
}

func TestTrackingRestoredAfterUntrack(t *testing.T) {
	before := NewSignal(0)
	after := NewSignal(0)

	runs := 0
	CreateEffect(func() {
		runs++
		_ = before.Get()
		Untrack(func() any { return nil })
		// Tracking is back on after Untrack returns.
		_ = after.Get()
	})

	after.Set(1)
	if runs != 2 {
		t.Errorf("read after Untrack must subscribe, got %d runs", runs)
	}
}

func TestGoroutinesHaveIndependentGraphs(t *testing.T) {
	main := NewSignal(0)
	mainRuns := 0
	CreateEffect(func() {
		mainRuns++
		_ = main.Get()
	})

	otherRuns := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer ReleaseContext()

		// A full graph confined to this goroutine.
		local := NewSignal(0)
		runs := 0
		CreateEffect(func() {
			runs++
			_ = local.Get()
		})
		local.Set(1)
		local.Set(2)
		otherRuns <- runs
	}()
	<-done

	if got := <-otherRuns; got != 3 {
		t.Errorf("expected 3 runs on the second goroutine, got %d", got)
	}
	// The other goroutine's activity never touched this graph.
	if mainRuns != 1 {
		t.Errorf("expected the main graph to be untouched, got %d runs", mainRuns)
	}
	main.Set(1)
	if mainRuns != 2 {
		t.Errorf("expected the main graph to keep working, got %d runs", mainRuns)
	}
}

func TestGoroutineDoesNotInheritTracking(t *testing.T) {
	sig := NewSignal(0)

	effectRuns := 0
	CreateEffect(func() {
		effectRuns++
		_ = sig.Get()

		if effectRuns == 1 {
			done := make(chan struct{})
			go func() {
				defer close(done)
				defer ReleaseContext()
				// Fresh goroutine, fresh execution context: this read does
				// not subscribe the spawning effect.
				_ = sig.Peek()
				other := NewSignal(1)
				_ = other.Get()
			}()
			<-done
		}
	})

	if effectRuns != 1 {
		t.Errorf("expected 1 run, got %d", effectRuns)
	}
}
