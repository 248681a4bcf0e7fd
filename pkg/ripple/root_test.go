package ripple

import "testing"

func TestRootReturnsValue(t *testing.T) {
	got := CreateRoot(func(dispose func()) string {
		return "ready"
	})

	if got != "ready" {
		t.Errorf("expected %q, got %q", "ready", got)
	}
}

func TestRootDisposeStopsEffects(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	dispose := CreateRoot(func(dispose func()) func() {
		CreateEffect(func() {
			runs++
			_ = count.Get()
		})
		return dispose
	})

	count.Set(1)
	if runs != 2 {
		t.Fatalf("expected 2 runs before disposal, got %d", runs)
	}

	dispose()
	count.Set(2)
	count.Set(3)
	if runs != 2 {
		t.Errorf("disposed root must not react, got %d runs", runs)
	}
}

func TestRootDisposeIsIdempotent(t *testing.T) {
	cleanups := 0

	dispose := CreateRoot(func(dispose func()) func() {
		OnCleanup(func() { cleanups++ })
		return dispose
	})

	dispose()
	dispose()
	dispose()

	if cleanups != 1 {
		t.Errorf("expected cleanups to run once, got %d", cleanups)
	}
}

func TestRootDisposeCascades(t *testing.T) {
	count := NewSignal(0)
	var order []string

	dispose := CreateRoot(func(dispose func()) func() {
		OnCleanup(func() { order = append(order, "root") })
		CreateEffect(func() {
			_ = count.Get()
			OnCleanup(func() { order = append(order, "effect") })
			CreateEffect(func() {
				OnCleanup(func() { order = append(order, "inner") })
			})
		})
		return dispose
	})

	dispose()

	// Children are disposed before the node's own cleanups run, depth
	// first, so the innermost cleanup fires first.
	want := []string{"inner", "effect", "root"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}

	count.Set(1)
	if len(order) != len(want) {
		t.Errorf("disposed tree must not run cleanups again, got %v", order)
	}
}

func TestRootSurvivesCreatingEffectRerun(t *testing.T) {
	trigger := NewSignal(0)
	inner := NewSignal(0)

	innerRuns := 0
	roots := 0
	CreateEffect(func() {
		_ = trigger.Get()
		if roots == 0 {
			roots++
			CreateRoot(func(dispose func()) any {
				CreateEffect(func() {
					innerRuns++
					_ = inner.Get()
				})
				return nil
			})
		}
	})

	if innerRuns != 1 {
		t.Fatalf("expected 1 run inside the root, got %d", innerRuns)
	}

	// The root is not a child of the effect, so the re-run's teardown does
	// not reach it.
	trigger.Set(1)
	inner.Set(1)
	if innerRuns != 2 {
		t.Errorf("root must survive the creating effect's re-run, got %d runs", innerRuns)
	}
}

func TestRootSurvivesParentRootDisposal(t *testing.T) {
	count := NewSignal(0)

	var innerDispose func()
	innerRuns := 0
	outerDispose := CreateRoot(func(dispose func()) func() {
		innerDispose = CreateRoot(func(d func()) func() {
			CreateEffect(func() {
				innerRuns++
				_ = count.Get()
			})
			return d
		})
		return dispose
	})

	outerDispose()
	count.Set(1)
	if innerRuns != 2 {
		t.Errorf("inner root must survive the outer root's disposal, got %d runs", innerRuns)
	}

	innerDispose()
	count.Set(2)
	if innerRuns != 2 {
		t.Errorf("disposed inner root must not react, got %d runs", innerRuns)
	}
}

func TestRootInheritsContext(t *testing.T) {
	env := CreateContext("prod")

	got := CreateRoot(func(dispose func()) string {
		env.Set("dev")
		// The inner root keeps a parent link for lookup even though it is
		// outside the disposal cascade.
		return CreateRoot(func(d func()) string {
			return env.Get()
		})
	})

	if got != "dev" {
		t.Errorf("expected context %q through the parent link, got %q", "dev", got)
	}
}

func TestRootBodyIsUntracked(t *testing.T) {
	count := NewSignal(0)

	rootRuns := 0
	CreateEffect(func() {
		CreateRoot(func(dispose func()) any {
			rootRuns++
			// Read inside the root body: must not become a dependency of
			// the surrounding effect.
			_ = count.Get()
			return nil
		})
	})

	count.Set(1)
	if rootRuns != 1 {
		t.Errorf("root body reads must not register dependencies, got %d runs", rootRuns)
	}
}
