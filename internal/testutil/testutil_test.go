package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	if ctx == nil {
		t.Fatal("context should not be nil")
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("context should have a deadline")
	}

	if time.Until(deadline) > TestTimeout {
		t.Errorf("deadline is too far in the future")
	}
}

func TestAssertNoError(t *testing.T) {
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	AssertError(t, context.Canceled)
}

func TestAssertEqual(t *testing.T) {
	AssertEqual(t, 42, 42)
	AssertEqual(t, "hello", "hello")
	AssertEqual(t, true, true)
}

func TestAssertNotEqual(t *testing.T) {
	AssertNotEqual(t, 1, 2)
	AssertNotEqual(t, "a", "b")
	AssertNotEqual(t, true, false)
}

func TestEventually(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		called := false
		Eventually(t, func() bool {
			called = true
			return true
		}, 100*time.Millisecond, 10*time.Millisecond)

		if !called {
			t.Error("condition function should be called")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var flag atomic.Bool
		go func() {
			time.Sleep(30 * time.Millisecond)
			flag.Store(true)
		}()

		Eventually(t, flag.Load, 200*time.Millisecond, 10*time.Millisecond)
	})
}

func TestAssertEventually(t *testing.T) {
	var flag atomic.Bool

	go func() {
		time.Sleep(30 * time.Millisecond)
		flag.Store(true)
	}()

	AssertEventually(t, flag.Load)
}

func TestWaitForCount(t *testing.T) {
	var counter atomic.Int64

	go func() {
		time.Sleep(30 * time.Millisecond)
		counter.Store(42)
	}()

	WaitForCount(t, counter.Load, 42, 200*time.Millisecond)

	if counter.Load() != 42 {
		t.Errorf("counter = %d, want 42", counter.Load())
	}
}
