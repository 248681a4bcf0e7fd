package rippletrace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

// recordingTracer captures span names and delegates to a noop tracer.
type recordingTracer struct {
	embedded.Tracer
	names []string
	real  trace.Tracer
}

func newRecordingTracer() *recordingTracer {
	return &recordingTracer{real: noop.NewTracerProvider().Tracer("test")}
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	r.names = append(r.names, name)
	return r.real.Start(ctx, name, opts...)
}

func installRecording(t *testing.T, opts ...Option) *recordingTracer {
	t.Helper()
	tracer := New(opts...)
	rec := newRecordingTracer()
	tracer.tracer = rec
	remove := ripple.AddHook(tracer)
	t.Cleanup(remove)
	return rec
}

func TestTracerEmitsComputationSpans(t *testing.T) {
	rec := installRecording(t)

	count := ripple.NewSignal(0)
	ripple.CreateNamedEffect("render", func() { _ = count.Get() })
	count.Set(1)

	var got []string
	for _, name := range rec.names {
		if name == "ripple.effect render" {
			got = append(got, name)
		}
	}
	if len(got) != 2 {
		t.Errorf("expected 2 render spans, got %d in %v", len(got), rec.names)
	}
}

func TestTracerEmitsBatchSpan(t *testing.T) {
	rec := installRecording(t)

	a := ripple.NewSignal(0)
	b := ripple.NewSignal(0)
	ripple.Batch(func() {
		a.Set(1)
		b.Set(2)
	})

	batches := 0
	for _, name := range rec.names {
		if name == "ripple.batch" {
			batches++
		}
	}
	if batches != 1 {
		t.Errorf("expected 1 batch span, got %d in %v", batches, rec.names)
	}
}

func TestNodeFilterSkipsSpans(t *testing.T) {
	rec := installRecording(t, WithNodeFilter(func(info ripple.NodeInfo) bool {
		return info.Kind != ripple.KindEffect
	}))

	count := ripple.NewSignal(0)
	ripple.CreateNamedEffect("skipped", func() { _ = count.Get() })
	ripple.NewMemo(func() int { return count.Get() })

	for _, name := range rec.names {
		if strings.Contains(name, "skipped") {
			t.Errorf("filtered effect produced span %q", name)
		}
	}
	memos := 0
	for _, name := range rec.names {
		if strings.HasPrefix(name, "ripple.memo") {
			memos++
		}
	}
	if memos != 1 {
		t.Errorf("expected 1 memo span, got %d in %v", memos, rec.names)
	}
}

func TestMinDurationDropsFastSpans(t *testing.T) {
	rec := installRecording(t, WithMinDuration(time.Hour))

	count := ripple.NewSignal(0)
	ripple.CreateEffect(func() { _ = count.Get() })
	ripple.Batch(func() { count.Set(1) })

	if len(rec.names) != 0 {
		t.Errorf("expected no spans under the duration floor, got %v", rec.names)
	}
}

func TestErrorSpanBypassesFilters(t *testing.T) {
	rec := installRecording(t,
		WithMinDuration(time.Hour),
		WithNodeFilter(func(ripple.NodeInfo) bool { return false }),
	)

	bad := ripple.NewSignal(false)
	ripple.CreateRoot(func(dispose func()) any {
		defer dispose()
		ripple.OnError(func(error) {})
		ripple.CreateNamedEffect("boom", func() {
			if bad.Get() {
				panic(errors.New("boom"))
			}
		})
		bad.Set(true)
		return nil
	})

	errorSpans := 0
	for _, name := range rec.names {
		if name == "ripple.effect boom" {
			errorSpans++
		}
	}
	if errorSpans != 1 {
		t.Errorf("expected 1 error span, got %d in %v", errorSpans, rec.names)
	}
}

func TestSpanName(t *testing.T) {
	tests := []struct {
		name string
		info ripple.NodeInfo
		want string
	}{
		{"named", ripple.NodeInfo{ID: 7, Name: "total", Kind: ripple.KindMemo}, "ripple.memo total"},
		{"unnamed", ripple.NodeInfo{ID: 7, Kind: ripple.KindEffect}, "ripple.effect #7"},
		{"zero", ripple.NodeInfo{}, "ripple.node #0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := spanName(tt.info); got != tt.want {
				t.Errorf("spanName(%+v)=%q, want %q", tt.info, got, tt.want)
			}
		})
	}
}
