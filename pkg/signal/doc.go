/*
Package signal provides the one-shot cancellation signal shared by every
component of a pipeline.

A Signal is a monotonic stop flag: it fires at most once, broadcasts to all
observers through Done, and retains the cause of the first Cancel call.
Deadlines are expressed by arming the Signal at construction time with
NewWithTimeout; no separate timeout mechanism exists.

Signals derive hierarchically with Child: cancelling a parent fires all of
its descendants, while cancelling a child leaves the parent untouched.

	root := signal.New()
	defer root.Cancel(nil)

	child := signal.Child(root)

	select {
	case v, ok := <-q.Out():
		// handle v
	case <-child.Done():
		return child.Cause()
	}

NotifyShutdown ties a Signal to OS termination signals so an interactive
process can drain its pipelines before exiting:

	sig, stop := signal.NotifyShutdown(root)
	defer stop()
	result := p.Run(sig.Context())
*/
package signal
