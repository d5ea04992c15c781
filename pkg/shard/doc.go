/*
Package shard implements the per-tenant-shard reconciliation state machine:
the interplay between an authoritative intent (desired placement), a
best-effort observed view of the outside world, a sequence number that
gives waiters a happens-before relation to reconcile attempts, and the
spawning, superseding, and cancellation of background reconcile tasks.

A TenantShard is owned exclusively by a single control loop (see
pkg/controller); nothing in this package takes a lock around shard state,
because nothing is meant to mutate a shard concurrently with that loop.
Background reconcile tasks spawned by MaybeReconcile never touch the
TenantShard directly - they carry an immutable snapshot and report back
over a channel.

# State machine

	Idle ──mutate──▶ Dirty ──MaybeReconcile──▶ Reconciling(seq=s)
	                                               │
	              ┌────────────────────────────────┤
	   ReconcileResult(s, Ok)         ReconcileResult(s, Err)
	              │                                │
	              ▼                                ▼
	         done advances to s            error advances to s,
	         observed merges fully,        last_error set,
	         (possibly Idle again)         observed merges partially

If a mutation occurs while Reconciling(s), the sequence becomes s' > s; the
next call to MaybeReconcile cancels the in-flight task and spawns a new one
targeting s'.

# Control flow

External events (a config change, a node going offline, a periodic tick)
call Schedule then MaybeReconcile on the affected TenantShard:

	event ──▶ mutate intent/config ──▶ Schedule ──▶ MaybeReconcile ──▶ *ReconcilerWaiter

MaybeReconcile returns nil when nothing needs to change. Otherwise it
returns a waiter for the shard's current sequence - relying on an already
in-flight task at that sequence rather than spawning a second one
(coalescing).

# Ownership boundaries

TenantShard never imports pkg/scheduler, pkg/reconciler, pkg/persistence,
pkg/computehook, or pkg/noderegistry. It consumes them through the narrow
interfaces declared in this package (Scheduler, ReconcilerBuilder,
NodeAvailabilitySnapshot, ComputeHook, Persistence) so that those packages
can depend on shard instead of the other way around.
*/
package shard
