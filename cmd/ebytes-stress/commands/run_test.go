package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/ssungk/ebytes/pkg/ebytes"
	"github.com/ssungk/ebytes/pkg/ebytes/buf"
)

func withCounting(t *testing.T) *buf.Counting {
	t.Helper()
	c := buf.NewCounting(buf.NewPool())
	ebytes.SetAllocator(c)
	t.Cleanup(func() { ebytes.SetAllocator(nil) })
	return c
}

func TestRunWorkload(t *testing.T) {
	alloc := withCounting(t)
	p := Profile{Workers: 8, Iterations: 500, Payload: 2048, SliceMax: 100, MutateEvery: 3}

	report, err := RunWorkload(context.Background(), p, alloc, 42)
	if err != nil {
		t.Fatalf("RunWorkload error: %v", err)
	}
	if report.Steps != int64(p.Workers*p.Iterations) {
		t.Errorf("expected %d steps, got %d", p.Workers*p.Iterations, report.Steps)
	}
	if report.Mutations != int64(p.Workers*(p.Iterations/p.MutateEvery)) {
		t.Errorf("expected %d mutations, got %d", p.Workers*(p.Iterations/p.MutateEvery), report.Mutations)
	}
	if report.Stats.Allocs == 0 || report.Stats.Allocs != report.Stats.Frees {
		t.Errorf("expected balanced allocations, got %+v", report.Stats)
	}
}

func TestRunWorkloadInlinePayload(t *testing.T) {
	alloc := withCounting(t)
	p := Profile{Workers: 4, Iterations: 100, Payload: 8, SliceMax: 8, MutateEvery: 1}

	report, err := RunWorkload(context.Background(), p, alloc, 1)
	if err != nil {
		t.Fatalf("RunWorkload error: %v", err)
	}
	if report.Stats.Frees != report.Stats.Allocs {
		t.Errorf("unbalanced allocations: %+v", report.Stats)
	}
}

func TestRunWorkloadCanceled(t *testing.T) {
	alloc := withCounting(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Profile{Workers: 2, Iterations: 1000, Payload: 512, SliceMax: 32}
	report, err := RunWorkload(ctx, p, alloc, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Stats.Frees != report.Stats.Allocs {
		t.Errorf("canceled run must still release everything: %+v", report.Stats)
	}
}

func TestRunWorkloadInvalidProfile(t *testing.T) {
	alloc := withCounting(t)
	if _, err := RunWorkload(context.Background(), Profile{}, alloc, 1); err == nil {
		t.Error("expected validation error")
	}
}
