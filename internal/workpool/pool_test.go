package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunExecutesAllTasks(t *testing.T) {
	p := New(2)
	var count int64
	tasks := make([]Task, 5)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			atomic.AddInt64(&count, 1)
			return nil
		}
	}
	if err := p.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	p := New(4)
	boom := errors.New("boom")
	tasks := []Task{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return boom },
	}
	if err := p.Run(context.Background(), tasks); !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
}

func TestRunCancelsRemainingOnFailure(t *testing.T) {
	p := New(1)
	boom := errors.New("boom")
	var ran int64
	tasks := []Task{
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			atomic.AddInt64(&ran, 1)
			return nil
		},
	}
	_ = p.Run(context.Background(), tasks)
	// With limit 1 the second task runs strictly after the first fails,
	// so it should observe the cancelled group context.
	if ran != 0 {
		t.Errorf("expected the second task to observe cancellation, ran=%d", ran)
	}
}

func TestRunCollectingRunsEveryTaskDespiteErrors(t *testing.T) {
	p := New(2)
	boom := errors.New("boom")
	tasks := []Task{
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return boom },
	}
	errs := p.RunCollecting(context.Background(), tasks)
	if len(errs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(errs))
	}
	if errs[1] != nil {
		t.Errorf("errs[1] = %v, want nil", errs[1])
	}
	if !errors.Is(errs[0], boom) || !errors.Is(errs[2], boom) {
		t.Errorf("expected errs[0] and errs[2] to be boom, got %v %v", errs[0], errs[2])
	}
}
