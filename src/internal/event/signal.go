// FILE: src/internal/event/signal.go
package event

import (
	"fmt"
	"sync"
)

// Signal is a named-event notification primitive. A goroutine blocks in
// WaitFor until another goroutine notifies the event with a payload or aborts
// it with an error. Each event name holds a single pending-wait slot; a
// second concurrent WaitFor on the same name fails instead of silently
// stacking waiters.
type Signal struct {
	mu      sync.Mutex
	waiters map[string]chan outcome
}

type outcome struct {
	payload any
	err     error
}

// Pending is a registered wait that has not yet completed.
type Pending struct {
	ch <-chan outcome
}

func NewSignal() *Signal {
	return &Signal{waiters: make(map[string]chan outcome)}
}

// Prepare registers a wait slot on the named event without blocking.
// The returned Pending must be completed with Wait. Prepare fails if the
// event already has a waiter.
func (s *Signal) Prepare(name string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.waiters[name]; exists {
		return nil, fmt.Errorf("event %q already has a pending waiter", name)
	}
	ch := make(chan outcome, 1)
	s.waiters[name] = ch
	return &Pending{ch: ch}, nil
}

// Wait blocks until the event is notified or aborted.
func (p *Pending) Wait() (any, error) {
	o := <-p.ch
	return o.payload, o.err
}

// WaitFor blocks the caller until the named event fires. It resolves with
// the notification's payload, or with the error passed to Abort.
func (s *Signal) WaitFor(name string) (any, error) {
	p, err := s.Prepare(name)
	if err != nil {
		return nil, err
	}
	return p.Wait()
}

// Notify wakes the current waiter on the named event with a payload.
// The event is spent afterwards; notifying with no waiter is a no-op.
func (s *Signal) Notify(name string, payload any) {
	s.complete(name, outcome{payload: payload})
}

// Abort wakes the current waiter on the named event by failing it with err.
func (s *Signal) Abort(name string, err error) {
	s.complete(name, outcome{err: err})
}

func (s *Signal) complete(name string, o outcome) {
	s.mu.Lock()
	ch, ok := s.waiters[name]
	if ok {
		delete(s.waiters, name)
	}
	s.mu.Unlock()

	if ok {
		ch <- o
	}
}
