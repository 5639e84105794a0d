package pool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/pipework/internal/testutil"
	pwerrors "github.com/vnykmshr/pipework/pkg/common/errors"
	"github.com/vnykmshr/pipework/pkg/queue"
)

func TestPoolProcessesEveryItemExactlyOnce(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	const items = 100
	in := queue.New[int](8)
	out := queue.New[int](items)

	p := New(4, in, out, func(_ context.Context, v int) (int, error) {
		return v * 2, nil
	})

	go func() {
		for i := 0; i < items; i++ {
			if err := in.Send(ctx, i); err != nil {
				t.Errorf("send failed: %v", err)
				return
			}
		}
		if err := in.Close(); err != nil {
			t.Errorf("close failed: %v", err)
		}
	}()

	testutil.AssertNoError(t, p.Run(ctx))

	if !out.Closed() {
		t.Fatal("output should be closed after all workers exit")
	}

	var got []int
	for {
		v, err := out.Receive(ctx)
		if err != nil {
			break
		}
		got = append(got, v)
	}

	sort.Ints(got)
	if len(got) != items {
		t.Fatalf("received %d results, want %d", len(got), items)
	}
	for i, v := range got {
		testutil.AssertEqual(t, v, i*2)
	}
}

func TestPoolBoundsParallelism(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	const workers = 3
	in := queue.New[int](16)
	out := queue.New[int](32)

	var active, peak atomic.Int32
	p := New(workers, in, out, func(_ context.Context, v int) (int, error) {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return v, nil
	})

	go func() {
		for i := 0; i < 20; i++ {
			if err := in.Send(ctx, i); err != nil {
				return
			}
		}
		in.Close()
	}()

	testutil.AssertNoError(t, p.Run(ctx))

	if got := peak.Load(); got > workers {
		t.Errorf("observed %d concurrent workers, limit is %d", got, workers)
	}
}

func TestPoolFailsFastOnWorkerError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	in := queue.New[int](8)
	out := queue.New[int](8)
	boom := errors.New("item rejected")

	p := New(2, in, out, func(_ context.Context, v int) (int, error) {
		if v == 3 {
			return 0, boom
		}
		return v, nil
	})

	go func() {
		for i := 0; i < 100; i++ {
			if err := in.Send(ctx, i); err != nil {
				return // pool cancelled and stopped consuming
			}
		}
		in.Close()
	}()

	err := p.Run(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the worker error, got %v", err)
	}
	if !out.Closed() {
		t.Fatal("output must be closed even on failure")
	}
}

func TestPoolRecoversWorkerPanic(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	in := queue.New[int](2)
	out := queue.New[int](2)

	p := New(1, in, out, func(_ context.Context, v int) (int, error) {
		panic(fmt.Sprintf("bad item %d", v))
	})

	testutil.AssertNoError(t, in.Send(ctx, 7))
	testutil.AssertNoError(t, in.Close())

	err := p.Run(ctx)
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "panicked") {
		t.Errorf("expected panic to surface in error, got %v", err)
	}
}

func TestPoolSinkWithoutOutput(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	in := queue.New[int](4)
	var sum atomic.Int64

	p := New[int, struct{}](2, in, nil, func(_ context.Context, v int) (struct{}, error) {
		sum.Add(int64(v))
		return struct{}{}, nil
	})

	for i := 1; i <= 4; i++ {
		testutil.AssertNoError(t, in.Send(ctx, i))
	}
	testutil.AssertNoError(t, in.Close())

	testutil.AssertNoError(t, p.Run(ctx))
	testutil.AssertEqual(t, sum.Load(), int64(10))
}

func TestPoolRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := queue.New[int](1) // never closed
	out := queue.New[int](1)

	p := New(2, in, out, func(_ context.Context, v int) (int, error) {
		return v, nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Run(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled pool did not return")
	}

	if !out.Closed() {
		t.Fatal("output must be closed after cancellation")
	}
}

func TestPoolRunIsOneShot(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	in := queue.New[int](1)
	testutil.AssertNoError(t, in.Close())

	p := New[int, int](1, in, nil, func(_ context.Context, v int) (int, error) {
		return v, nil
	})

	testutil.AssertNoError(t, p.Run(ctx))

	if err := p.Run(ctx); !errors.Is(err, pwerrors.ErrPipelineRunning) {
		t.Fatalf("expected ErrPipelineRunning on second Run, got %v", err)
	}
}

func TestPoolStatsAndCallbacks(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	in := queue.New[int](8)
	var itemCalls atomic.Int64

	p := NewWithConfig(Config{
		Workers: 2,
		Name:    "stats-pool",
		OnItem: func(_ int, err error) {
			testutil.AssertNoError(t, err)
			itemCalls.Add(1)
		},
	}, in, queue.Queue[int](nil), func(_ context.Context, v int) (int, error) {
		return v, nil
	})

	testutil.AssertEqual(t, p.Workers(), 2)

	for i := 0; i < 5; i++ {
		testutil.AssertNoError(t, in.Send(ctx, i))
	}
	testutil.AssertNoError(t, in.Close())
	testutil.AssertNoError(t, p.Run(ctx))

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Workers, 2)
	testutil.AssertEqual(t, stats.Active, 0)
	testutil.AssertEqual(t, stats.Processed, int64(5))
	testutil.AssertEqual(t, stats.Failures, int64(0))
	testutil.AssertEqual(t, itemCalls.Load(), int64(5))
}

func TestNewSafeRejectsBadConfig(t *testing.T) {
	in := queue.New[int](1)
	fn := func(_ context.Context, v int) (int, error) { return v, nil }

	if _, err := NewSafe(Config{Workers: 0}, in, queue.Queue[int](nil), fn); err == nil {
		t.Error("expected error for zero workers")
	}
	if _, err := NewSafe[int, int](Config{Workers: 1}, nil, nil, fn); err == nil {
		t.Error("expected error for nil input queue")
	}
	if _, err := NewSafe(Config{Workers: 1}, in, queue.Queue[int](nil), nil); err == nil {
		t.Error("expected error for nil work function")
	}
}
