package combine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/pipework/pkg/queue"
)

// FanOut distributes items from in across the given outputs. One forwarder
// per output competes for the next item, so every item goes to exactly one
// output; this is distribution, not broadcast. FanOut blocks until in is
// closed and drained, then closes every output. FanOut owns the outputs;
// callers must not close them or declare them as stage outputs elsewhere.
func FanOut[T any](ctx context.Context, in queue.Queue[T], outs ...queue.Queue[T]) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, out := range outs {
		out := out
		g.Go(func() error {
			err := forward(gctx, in, out)
			if cerr := out.Close(); cerr != nil && err == nil {
				err = cerr
			}
			return err
		})
	}

	return g.Wait()
}
