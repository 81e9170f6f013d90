package store

// notifier is a coalescing wake-up signal.
//
// It holds at most one pending wake. A notify with no waiter is remembered
// and satisfies the next wait exactly once; repeated notifies before that
// wait collapse into the same single wake.
type notifier struct {
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{}, 1)}
}

// notify never blocks.
func (n *notifier) notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// wait returns the channel that receives the pending wake.
func (n *notifier) wait() <-chan struct{} {
	return n.ch
}
