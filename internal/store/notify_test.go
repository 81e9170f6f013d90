package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func pending(n *notifier) bool {
	select {
	case <-n.wait():
		return true
	default:
		return false
	}
}

func TestNotifier_RemembersSignalWithoutWaiter(t *testing.T) {
	n := newNotifier()
	n.notify()

	assert.True(t, pending(n), "a signal sent before waiting satisfies the next wait")
	assert.False(t, pending(n), "and is consumed exactly once")
}

func TestNotifier_CoalescesRepeatedSignals(t *testing.T) {
	n := newNotifier()
	n.notify()
	n.notify()
	n.notify()

	assert.True(t, pending(n))
	assert.False(t, pending(n), "several signals collapse into one wake")
}

func TestNotifier_WakesBlockedWaiter(t *testing.T) {
	n := newNotifier()
	woke := make(chan struct{})

	go func() {
		<-n.wait()
		close(woke)
	}()

	time.Sleep(5 * time.Millisecond)
	n.notify()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}
