package combine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	pwerrors "github.com/vnykmshr/pipework/pkg/common/errors"
	"github.com/vnykmshr/pipework/pkg/queue"
)

// Bridge flattens a queue of queues into one flat output. For each inner
// queue received from streams, Bridge spawns a drain worker that forwards
// the inner queue's items into out, respecting cancellation at both levels.
// Inner queues drain concurrently, so items from different inner queues
// interleave in out.
//
// The group join guarantees out closes only once streams is closed and
// every spawned drain worker has exited. Bridge owns out; the inner queues
// remain owned by whoever produced them.
func Bridge[T any](ctx context.Context, out queue.Queue[T], streams queue.Queue[queue.Queue[T]]) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			inner, err := streams.Receive(gctx)
			if err != nil {
				if errors.Is(err, pwerrors.ErrClosed) {
					return nil
				}
				return err
			}
			// Every received inner queue gets a drain worker; none is
			// abandoned to the garbage collector.
			g.Go(func() error {
				return forward(gctx, inner, out)
			})
		}
	})

	err := g.Wait()
	if cerr := out.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
