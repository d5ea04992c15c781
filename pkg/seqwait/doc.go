/*
Package seqwait provides a monotone counter paired with a "wait until the
counter reaches N" facility, and a combined waiter that races a success
counter against an error counter.

This is the primitive at the bottom of the reconciliation state machine:
pkg/shard uses two independent SeqWait instances per shard (done and error)
to let callers block until a specific sequence number has been reconciled,
without polling and without missing an advance that happened between the
check and the wait.

# Why not sync.Cond

sync.Cond does not compose with context cancellation or a timeout without
an extra goroutine per waiter anyway, and it wakes every waiter on every
Broadcast even when most of them are waiting for a later value. SeqWait
instead closes a generation channel on every advance; a waiter captures the
current generation channel, checks the counter, and only blocks on that one
channel - cheap to construct, cheap to wait on, and naturally supports
selecting against a timeout or a second SeqWait's channel.
*/
package seqwait
