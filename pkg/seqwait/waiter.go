package seqwait

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shardctl/controller/pkg/shardtypes"
)

// ErrorHolder is a minimal mutex-guarded string, used to publish the most
// recent reconcile error to waiters running in other goroutines. It is
// deliberately not a generic "last event" log: only the latest error text
// is kept.
type ErrorHolder struct {
	mu   sync.Mutex
	text string
}

// Set replaces the held error text.
func (h *ErrorHolder) Set(text string) {
	h.mu.Lock()
	h.text = text
	h.mu.Unlock()
}

// Get returns a snapshot of the held error text. An eventually-consistent
// read is fine here: the error SeqWait's Advance happens-before any waiter
// observes it, and Advance is only ever called after Set.
func (h *ErrorHolder) Get() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.text
}

// FailedError is returned by ReconcilerWaiter.WaitTimeout when the
// reconcile attempt at the waiter's target sequence failed rather than
// merely being slow.
type FailedError struct {
	TenantShardId shardtypes.TenantShardId
	Err           string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("reconcile error on shard %s: %s", e.TenantShardId, e.Err)
}

// ReconcilerWaiter lets a caller block until a particular sequence number
// has been reconciled, successfully or not. It holds references to both of
// a shard's counters (done and error) plus the last error text - never a
// copy of shard state - so it stays correct across any number of
// supersessions between construction and resolution.
type ReconcilerWaiter struct {
	TenantShardId shardtypes.TenantShardId

	done  *SeqWait
	erro  *SeqWait
	err   *ErrorHolder
	target shardtypes.Sequence
}

// NewReconcilerWaiter builds a waiter targeting the given sequence.
func NewReconcilerWaiter(id shardtypes.TenantShardId, done, erro *SeqWait, err *ErrorHolder, target shardtypes.Sequence) *ReconcilerWaiter {
	return &ReconcilerWaiter{
		TenantShardId: id,
		done:          done,
		erro:          erro,
		err:           err,
		target:        target,
	}
}

// Target returns the sequence number this waiter is blocking for.
func (w *ReconcilerWaiter) Target() shardtypes.Sequence {
	return w.target
}

// WaitTimeout races the done counter (with the given timeout) against the
// error counter (unbounded): whichever reaches the target sequence first
// decides the outcome. It is an invariant upheld by pkg/shard that the
// error counter only ever advances to a value that was, at some point, the
// shard's live sequence - so if the error path wins, the attempt at this
// sequence genuinely failed.
func (w *ReconcilerWaiter) WaitTimeout(ctx context.Context, timeout time.Duration) error {
	type outcome struct {
		failed bool
		err    error
	}
	// raceCtx is canceled as soon as one branch resolves, so the losing
	// goroutine unblocks immediately instead of leaking until its SeqWait
	// happens to advance again (which, for the error counter, may be never).
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, 2)
	go func() {
		err := w.done.WaitFor(raceCtx, w.target, timeout)
		results <- outcome{failed: false, err: err}
	}()
	go func() {
		err := w.erro.WaitFor(raceCtx, w.target, 0)
		results <- outcome{failed: true, err: err}
	}()

	first := <-results
	cancel()
	if first.failed {
		if first.err != nil {
			return first.err
		}
		return &FailedError{TenantShardId: w.TenantShardId, Err: w.err.Get()}
	}
	return first.err
}
