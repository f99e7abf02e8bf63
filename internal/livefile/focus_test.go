package livefile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pairedController(t *testing.T, h *fakeHandle) *Controller {
	t.Helper()
	ctrl, _ := newTestController(t)
	require.NoError(t, ctrl.Pair(context.Background(), h))
	return ctrl
}

func expectSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reload signal")
	}
}

func expectNoSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected reload signal")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFocusTransitionTriggersReload(t *testing.T) {
	h := newFakeHandle("content")
	ctrl := pairedController(t, h)
	reads := h.readCount()

	bus := NewFocusBus()
	fired := make(chan struct{}, 1)
	sched := NewRefreshScheduler(ctrl, bus, func() { fired <- struct{}{} })
	defer sched.Close()

	bus.Publish(false)
	bus.Publish(true)
	expectSignal(t, fired)
	require.Equal(t, reads+1, h.readCount())
}

func TestNoFireOnInitialFocus(t *testing.T) {
	h := newFakeHandle("content")
	ctrl := pairedController(t, h)

	bus := NewFocusBus()
	fired := make(chan struct{}, 1)
	sched := NewRefreshScheduler(ctrl, bus, func() { fired <- struct{}{} })
	defer sched.Close()

	// first event after subscribe only establishes the baseline
	bus.Publish(true)
	expectNoSignal(t, fired)

	// an actual transition afterwards does fire
	bus.Publish(false)
	bus.Publish(true)
	expectSignal(t, fired)
}

func TestNoFireWhenPairingInvalid(t *testing.T) {
	h := newFakeHandle("content")
	ctrl := pairedController(t, h)
	h.setAccessErr(errors.New("revoked"))
	reads := h.readCount()

	bus := NewFocusBus()
	fired := make(chan struct{}, 1)
	sched := NewRefreshScheduler(ctrl, bus, func() { fired <- struct{}{} })
	defer sched.Close()

	bus.Publish(false)
	bus.Publish(true)
	expectNoSignal(t, fired)
	require.Equal(t, reads, h.readCount())
}

func TestNoFireWithoutContent(t *testing.T) {
	h := newFakeHandle("content")
	h.setReadErr(errors.New("unreadable"))
	ctrl, _ := newTestController(t)
	require.NoError(t, ctrl.Pair(context.Background(), h)) // initial read fails, no content
	reads := h.readCount()

	bus := NewFocusBus()
	fired := make(chan struct{}, 1)
	sched := NewRefreshScheduler(ctrl, bus, func() { fired <- struct{}{} })
	defer sched.Close()

	bus.Publish(false)
	bus.Publish(true)
	expectNoSignal(t, fired)
	require.Equal(t, reads, h.readCount())
}

func TestSchedulerCloseUnsubscribes(t *testing.T) {
	h := newFakeHandle("content")
	ctrl := pairedController(t, h)

	bus := NewFocusBus()
	fired := make(chan struct{}, 1)
	sched := NewRefreshScheduler(ctrl, bus, func() { fired <- struct{}{} })
	bus.Publish(false)
	sched.Close()
	sched.Close() // safe to call again

	bus.Publish(true)
	expectNoSignal(t, fired)
}

func TestFocusBusMultipleSubscribers(t *testing.T) {
	bus := NewFocusBus()
	ch1, cancel1 := bus.Subscribe()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(true)
	require.True(t, (<-ch1).Focused)
	require.True(t, (<-ch2).Focused)

	cancel1()
	cancel1() // idempotent
	_, open := <-ch1
	require.False(t, open)

	bus.Publish(false)
	require.False(t, (<-ch2).Focused)
}
