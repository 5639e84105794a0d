package concurrency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/pipework/internal/testutil"
	"github.com/vnykmshr/pipework/pkg/metrics"
)

func TestTryAcquireRelease(t *testing.T) {
	l := New(2)

	if !l.TryAcquire() || !l.TryAcquire() {
		t.Fatal("expected two slots available")
	}
	if l.TryAcquire() {
		t.Fatal("third acquire should fail")
	}

	testutil.AssertEqual(t, l.InUse(), 2)
	testutil.AssertEqual(t, l.Available(), 0)

	l.Release()
	testutil.AssertEqual(t, l.InUse(), 1)
	if !l.TryAcquire() {
		t.Fatal("released slot should be acquirable")
	}
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	l := New(1)
	testutil.AssertNoError(t, l.Acquire(ctx))

	acquired := make(chan struct{})
	go func() {
		if err := l.Acquire(ctx); err != nil {
			t.Errorf("blocked acquire failed: %v", err)
			return
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("acquire should block while the slot is held")
	case <-time.After(20 * time.Millisecond):
	}

	l.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not granted the released slot")
	}

	l.Release()
}

func TestAcquireRespectsCancellation(t *testing.T) {
	l := New(1)
	testutil.AssertNoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Acquire(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled acquire did not return")
	}

	// The held slot is unaffected by the cancelled waiter.
	testutil.AssertEqual(t, l.InUse(), 1)
	l.Release()
	testutil.AssertEqual(t, l.InUse(), 0)
}

func TestDoReleasesOnError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	l := New(1)

	wantErr := errors.New("work failed")
	if err := l.Do(ctx, func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("Do returned %v, want work error", err)
	}

	testutil.AssertEqual(t, l.InUse(), 0)
	testutil.AssertEqual(t, l.Available(), 1)
}

func TestBoundedParallelism(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	const capacity = 3
	l := New(capacity)

	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(ctx, func() error {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got > capacity {
		t.Fatalf("observed %d concurrent operations, capacity %d", got, capacity)
	}
}

func TestOverReleasePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on over-release")
		}
	}()
	New(1).Release()
}

func TestNewSafeRejectsInvalidCapacity(t *testing.T) {
	if _, err := NewSafe(0); err == nil {
		t.Fatal("expected error for zero capacity")
	}
	if _, err := NewSafe(-5); err == nil {
		t.Fatal("expected error for negative capacity")
	}
}

func TestMetricsLimiter(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	reg := prometheus.NewRegistry()
	l := NewWithMetrics(2, "test-limiter", metrics.Config{Enabled: true, Registry: reg})

	testutil.AssertNoError(t, l.Acquire(ctx))
	testutil.AssertEqual(t, l.InUse(), 1)
	l.Release()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected limiter metrics to be registered")
	}
}

func TestMetricsDisabledReturnsBareLimiter(t *testing.T) {
	l := NewWithMetrics(1, "plain", metrics.Config{Enabled: false})
	if _, ok := l.(*MetricsLimiter); ok {
		t.Fatal("disabled metrics should not wrap the limiter")
	}
}
