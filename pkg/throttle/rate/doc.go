/*
Package rate provides ticker-paced admission for pipeline stages.

A Limiter created with NewEvery admits at most one operation per interval,
spacing starts evenly no matter how quickly callers ask. Use it around a
stage's unit of work to shape its output rate:

	limiter := rate.NewEvery(100 * time.Millisecond)

	for {
		v, err := in.Receive(ctx)
		if err != nil {
			return nil
		}
		if err := limiter.Admit(ctx); err != nil {
			return err
		}
		// at most 10 of these per second, evenly spaced
		if err := out.Send(ctx, transform(v)); err != nil {
			return err
		}
	}

Admit blocks in the same multiplexed wait as every other suspension point:
it returns promptly with the context error once the pipeline is cancelled.
*/
package rate
