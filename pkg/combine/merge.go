package combine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	pwerrors "github.com/vnykmshr/pipework/pkg/common/errors"
	"github.com/vnykmshr/pipework/pkg/queue"
)

// Merge drains every source queue concurrently into out. It blocks until
// all sources are closed and fully drained, or until ctx is cancelled or a
// forward fails, then closes out. Merge owns out; callers must not close it
// or declare it as a stage output elsewhere.
//
// Items from different sources interleave without ordering guarantees;
// FIFO holds per source.
func Merge[T any](ctx context.Context, out queue.Queue[T], sources ...queue.Queue[T]) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			return forward(gctx, src, out)
		})
	}

	// The join across all forwarders guarantees out closes only after
	// every source has been drained.
	err := g.Wait()
	if cerr := out.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// PriorityMerge drains high and low into out, preferring high. The wait is
// two-phase: a non-blocking check of high first, then a fair blocking
// select across both sources. Priority is best effort: an item can slip
// into low between the check and the blocking wait, but under sustained
// load a high item is never delayed behind more than one low item in
// flight. PriorityMerge owns out and closes it once both sources are
// drained.
func PriorityMerge[T any](ctx context.Context, out, high, low queue.Queue[T]) error {
	err := priorityLoop(ctx, out, high, low)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func priorityLoop[T any](ctx context.Context, out, high, low queue.Queue[T]) error {
	highCh, lowCh := high.Out(), low.Out()

	for highCh != nil || lowCh != nil {
		// Phase one: serve the high-priority source if it is ready now.
		// A single select across both sources picks uniformly among ready
		// arms and would not give priority.
		if highCh != nil {
			select {
			case v, ok := <-highCh:
				if !ok {
					highCh = nil
					continue
				}
				if err := out.Send(ctx, v); err != nil {
					return err
				}
				continue
			default:
			}
		}

		// Phase two: fair blocking wait. A nil source channel blocks
		// forever, dropping that arm from the select.
		select {
		case v, ok := <-highCh:
			if !ok {
				highCh = nil
				continue
			}
			if err := out.Send(ctx, v); err != nil {
				return err
			}
		case v, ok := <-lowCh:
			if !ok {
				lowCh = nil
				continue
			}
			if err := out.Send(ctx, v); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// forward copies src into out until src is closed and drained.
func forward[T any](ctx context.Context, src, out queue.Queue[T]) error {
	for {
		v, err := src.Receive(ctx)
		if err != nil {
			if errors.Is(err, pwerrors.ErrClosed) {
				return nil
			}
			return err
		}
		if err := out.Send(ctx, v); err != nil {
			return err
		}
	}
}
