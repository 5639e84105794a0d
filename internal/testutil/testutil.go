// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"testing"
	"time"
)

// TestTimeout is the default timeout for tests.
const TestTimeout = 5 * time.Second

// WithTimeout creates a context with the default test timeout.
func WithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), TestTimeout)
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertEqual fails the test if got != want.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// AssertNotEqual fails the test if got == notWant.
func AssertNotEqual[T comparable](t *testing.T, got, notWant T) {
	t.Helper()
	if got == notWant {
		t.Fatalf("got %v, want a different value", got)
	}
}

// Eventually polls cond until it returns true or timeout elapses.
func Eventually(t *testing.T, cond func() bool, timeout, interval time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatalf("condition not met within %v", timeout)
}

// AssertEventually is Eventually with default timing suitable for most
// asynchronous assertions.
func AssertEventually(t *testing.T, cond func() bool) {
	t.Helper()
	Eventually(t, cond, time.Second, 5*time.Millisecond)
}

// WaitForCount polls get until it returns want, failing the test on timeout.
// Useful for waiting on atomic counters updated by background goroutines.
func WaitForCount(t *testing.T, get func() int64, want int64, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if get() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("count = %d, want %d after %v", get(), want, timeout)
}
