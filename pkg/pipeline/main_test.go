package pipeline

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in this package.
// After Run returns, no stage goroutine may remain alive.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
