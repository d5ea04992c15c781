package seqwait

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shardctl/controller/pkg/shardtypes"
)

// ErrTimeout is returned by WaitFor when the timeout elapses before the
// counter reaches the requested value.
var ErrTimeout = errors.New("seqwait: timeout waiting for sequence")

// ErrShutdown is returned by WaitFor (and by any wait issued after) once
// Shutdown has been called on this SeqWait, or when the caller's context is
// canceled before the counter reaches the requested value.
var ErrShutdown = errors.New("seqwait: shut down")

// SeqWait is a monotone counter plus a facility to wait until the counter
// reaches a given value. Advance is idempotent and never regresses the
// counter. Multiple goroutines may wait concurrently; all of them observe
// an advance as soon as it happens, with no polling.
type SeqWait struct {
	mu      sync.Mutex
	current shardtypes.Sequence
	gen     chan struct{}
	down    bool
}

// New creates a SeqWait whose counter starts at initial.
func New(initial shardtypes.Sequence) *SeqWait {
	return &SeqWait{
		current: initial,
		gen:     make(chan struct{}),
	}
}

// Advance raises the counter to n if n is greater than the current value.
// Calling Advance with a value less than or equal to the current value is a
// no-op - the counter never regresses.
func (s *SeqWait) Advance(n shardtypes.Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down || n <= s.current {
		return
	}
	s.current = n
	close(s.gen)
	s.gen = make(chan struct{})
}

// Current returns the counter's present value.
func (s *SeqWait) Current() shardtypes.Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Shutdown wakes every waiter, present and future, with ErrShutdown. It is
// idempotent.
func (s *SeqWait) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return
	}
	s.down = true
	close(s.gen)
}

// WaitFor blocks until the counter reaches n, the timeout elapses, ctx is
// canceled, or Shutdown is called. A timeout of zero or less means wait
// indefinitely (subject to ctx and Shutdown).
func (s *SeqWait) WaitFor(ctx context.Context, n shardtypes.Sequence, timeout time.Duration) error {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	for {
		s.mu.Lock()
		if s.down {
			s.mu.Unlock()
			return ErrShutdown
		}
		if s.current >= n {
			s.mu.Unlock()
			return nil
		}
		gen := s.gen
		s.mu.Unlock()

		select {
		case <-gen:
			// Counter advanced (or shut down); loop and re-check.
		case <-timeoutC:
			return ErrTimeout
		case <-ctx.Done():
			return ErrShutdown
		}
	}
}
