/*
Package reconciler implements shard.ReconcilerWorker and
shard.ReconcilerBuilder: the background task pkg/shard.MaybeReconcile
spawns to converge a shard's actual page server state toward its intent.

One Worker is built per reconcile attempt from a shard.ReconcileSnapshot -
an immutable, independent copy of everything the attempt needs - and is
discarded after Reconcile returns. Reconcile performs, in order: mint a
fresh durable generation whenever the attached node does not already hold
the wanted attached configuration (same node or a new one),
upsert every wanted location (attached first, then secondaries, checking
ctx between each RPC so a superseding task can cancel promptly), delete
any page server location the shard no longer wants, then notify the
compute hook once the attached location is confirmed. The worker mutates
only its own private copy of observed state as it learns results; the
control loop applies that copy back via shard.ApplyReconcileResult, never
this package directly.
*/
package reconciler
