// FILE: src/internal/event/signal_test.go
package event

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_NotifyWakesWaiter(t *testing.T) {
	s := NewSignal()

	var wg sync.WaitGroup
	wg.Add(1)
	var payload any
	var waitErr error
	go func() {
		defer wg.Done()
		payload, waitErr = s.WaitFor("readable")
	}()

	// Give the waiter time to register before notifying
	time.Sleep(10 * time.Millisecond)
	s.Notify("readable", 42)
	wg.Wait()

	require.NoError(t, waitErr)
	assert.Equal(t, 42, payload)
}

func TestSignal_AbortFailsWaiter(t *testing.T) {
	s := NewSignal()
	sentinel := errors.New("stream detached")

	var wg sync.WaitGroup
	wg.Add(1)
	var waitErr error
	go func() {
		defer wg.Done()
		_, waitErr = s.WaitFor("readable")
	}()

	time.Sleep(10 * time.Millisecond)
	s.Abort("readable", sentinel)
	wg.Wait()

	assert.ErrorIs(t, waitErr, sentinel)
}

func TestSignal_NotifyWithoutWaiterIsNoOp(t *testing.T) {
	s := NewSignal()
	s.Notify("readable", "dropped")
	s.Abort("readable", errors.New("dropped"))

	// A later waiter must not see the earlier, spent notification.
	p, err := s.Prepare("readable")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("waiter woke from a notification that fired before it registered")
	case <-time.After(20 * time.Millisecond):
	}

	s.Notify("readable", nil)
	<-done
}

func TestSignal_SingleWaiterSlot(t *testing.T) {
	s := NewSignal()

	_, err := s.Prepare("readable")
	require.NoError(t, err)

	_, err = s.Prepare("readable")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pending waiter")

	// A different event name has its own slot.
	_, err = s.Prepare("ended")
	assert.NoError(t, err)
}

func TestSignal_SlotFreedAfterCompletion(t *testing.T) {
	s := NewSignal()

	p, err := s.Prepare("readable")
	require.NoError(t, err)
	s.Notify("readable", nil)
	_, err = p.Wait()
	require.NoError(t, err)

	_, err = s.Prepare("readable")
	assert.NoError(t, err)
}
