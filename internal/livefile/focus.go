package livefile

import (
	"context"
	"sync"
)

// FocusEvent reports whether the host application holds input focus.
type FocusEvent struct {
	Focused bool
}

// FocusSource is a process-wide focus signal. Subscribe returns a channel of
// events and a cancel function that releases the subscription.
type FocusSource interface {
	Subscribe() (<-chan FocusEvent, func())
}

// FocusBus is a channel-backed FocusSource fed by the host event loop.
// Multiple subscribers are allowed; a slow subscriber drops events rather
// than blocking the publisher (focus states coalesce harmlessly).
type FocusBus struct {
	mu   sync.Mutex
	subs map[int]chan FocusEvent
	next int
}

func NewFocusBus() *FocusBus {
	return &FocusBus{subs: make(map[int]chan FocusEvent)}
}

// Publish fans the focus state out to all subscribers.
func (b *FocusBus) Publish(focused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- FocusEvent{Focused: focused}:
		default:
		}
	}
}

func (b *FocusBus) Subscribe() (<-chan FocusEvent, func()) {
	ch := make(chan FocusEvent, 8)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// RefreshScheduler reloads the paired file when the host regains focus, so
// out-of-band edits show up without the user asking. It fires only on an
// observed blurred-to-focused transition while the pairing is valid and
// content has already been loaded; the first event after subscribing only
// establishes the baseline.
type RefreshScheduler struct {
	ctrl   *Controller
	notify func() // called after each triggered reload; may be nil

	cancel    func()
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRefreshScheduler subscribes to src and starts watching. notify, if not
// nil, runs after every reload the scheduler triggers (the TUI uses it to
// repaint).
func NewRefreshScheduler(ctrl *Controller, src FocusSource, notify func()) *RefreshScheduler {
	ch, cancel := src.Subscribe()
	s := &RefreshScheduler{
		ctrl:   ctrl,
		notify: notify,
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run(ch)
	return s
}

func (s *RefreshScheduler) run(ch <-chan FocusEvent) {
	defer close(s.done)
	ctx := context.Background()
	focused, known := false, false
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			wasFocused, wasKnown := focused, known
			focused, known = ev.Focused, true
			if !ev.Focused || !wasKnown || wasFocused {
				continue
			}
			if s.ctrl.IsValid(ctx) && s.ctrl.HasContent() {
				s.ctrl.Reload(ctx)
				if s.notify != nil {
					s.notify()
				}
			}
		case <-s.stop:
			return
		}
	}
}

// Close unsubscribes and waits for the watch loop to exit, so no callback can
// fire against a closed pairing afterwards. Safe to call more than once.
func (s *RefreshScheduler) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.stop)
		<-s.done
	})
}
