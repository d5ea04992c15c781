package shard

import (
	"context"
	"time"

	"github.com/shardctl/controller/pkg/seqwait"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// NodeAvailabilitySnapshot is the narrow view of the node registry that
// MaybeReconcile needs: enough to tell whether an ambiguous observation on
// a node is worth cleaning up right now.
type NodeAvailabilitySnapshot interface {
	Availability(id shardtypes.NodeId) (shardtypes.NodeAvailability, bool)
}

// ComputeHook notifies a compute layer that a shard's attached location
// changed. The core never calls this directly - it only forwards the
// handle into the Reconciler worker's snapshot.
type ComputeHook interface {
	Notify(ctx context.Context, id shardtypes.TenantShardId, attached *shardtypes.NodeId) error
}

// Persistence is the narrow view of durable storage the Reconciler worker
// needs: a way to mint a fresh, durable generation before attaching
// somewhere new. The core never calls this directly either.
type Persistence interface {
	IncrementGeneration(ctx context.Context, id shardtypes.TenantShardId) (shardtypes.Generation, error)
}

// ServiceConfig is opaque, caller-supplied configuration forwarded into
// every Reconciler snapshot unmodified.
type ServiceConfig struct {
	RPCTimeout time.Duration
}

// ReconcileSnapshot is everything a Reconciler worker needs, captured at
// the moment MaybeReconcile decides to spawn it. Intent and Observed are
// independent copies: the worker may read and mutate them freely without
// any risk of racing the control loop.
type ReconcileSnapshot struct {
	TenantShardId shardtypes.TenantShardId
	Shard         shardtypes.ShardIdentity
	Generation    shardtypes.Generation
	Intent        IntentState
	Config        shardtypes.TenantConfig
	Observed      ObservedState

	Nodes         NodeAvailabilitySnapshot
	ComputeHook   ComputeHook
	ServiceConfig ServiceConfig
	Persistence   Persistence
}

// ReconcilerWorker is the consumed contract for the background worker that
// performs the RPC sequence against page servers. Reconcile mutates the
// worker's own observed state as it learns what actually happened;
// Observed and Generation are read by MaybeReconcile's spawned goroutine
// only after Reconcile returns.
type ReconcilerWorker interface {
	Reconcile(ctx context.Context) error
	Observed() ObservedState
	Generation() shardtypes.Generation
}

// ReconcilerBuilder constructs a ReconcilerWorker from a snapshot. Supplied
// by pkg/reconciler; this package never constructs a worker itself.
type ReconcilerBuilder interface {
	Build(snapshot ReconcileSnapshot) ReconcilerWorker
}

// ReconcileDeps bundles everything MaybeReconcile needs beyond the shard
// itself. Ctx is the root context for every reconcile task spawned from
// this call onward: canceling it fires every in-flight task's cancellation
// and releases any task blocked sending its result on ResultCh (a send
// that has buffer room may still go through), which is how system
// shutdown is modeled.
type ReconcileDeps struct {
	Ctx           context.Context
	ResultCh      chan<- ReconcileResult
	Nodes         NodeAvailabilitySnapshot
	ComputeHook   ComputeHook
	ServiceConfig ServiceConfig
	Persistence   Persistence
	Builder       ReconcilerBuilder
}

// ReconcileResult is the message a completing reconcile task sends back to
// be applied to the TenantShard it was spawned from.
type ReconcileResult struct {
	Sequence      shardtypes.Sequence
	TenantShardId shardtypes.TenantShardId
	Generation    shardtypes.Generation

	// Observed is, on success, the worker's full observed view (replacing
	// the shard's for every node it mentions). On failure it is a partial
	// update: mentioned nodes override, unmentioned nodes are untouched.
	Observed ObservedState

	// Err is nil on success.
	Err error
}

// reconcilerHandle captures an in-flight reconcile: the sequence it was
// spawned to satisfy, a way to cancel it, and a way to wait for it to
// finish - the Go analogue of a join handle.
type reconcilerHandle struct {
	sequence shardtypes.Sequence
	cancel   context.CancelFunc
	done     chan struct{}
}

// MaybeReconcile is the orchestrator: it decides whether work is needed
// and, if so, either hands back a waiter for an already in-flight task at
// the current sequence (coalescing) or supersedes any stale in-flight task
// and spawns a fresh one. It returns nil when nothing needs to change.
func (t *TenantShard) MaybeReconcile(deps ReconcileDeps) *seqwait.ReconcilerWaiter {
	dirtyObserved := false
	for node, loc := range t.Observed.Locations {
		if loc.HasConf {
			continue
		}
		avail, known := deps.Nodes.Availability(node)
		// A node referenced by Observed is assumed present in the
		// registry by contract with the node registry; if it is somehow
		// unknown we err on the side of treating it as live so the
		// ambiguity still gets cleaned up.
		if !known || avail != shardtypes.Offline {
			dirtyObserved = true
			break
		}
	}

	if !t.dirty() && !dirtyObserved {
		return nil
	}

	if t.reconciler != nil && t.reconciler.sequence == t.Sequence {
		return t.Waiter()
	}

	oldHandle := t.reconciler
	t.reconciler = nil

	snapshot := ReconcileSnapshot{
		TenantShardId: t.TenantShardId,
		Shard:         t.Shard,
		Generation:    t.Generation,
		Intent:        t.Intent.Clone(),
		Config:        t.Config,
		Observed:      t.Observed.Clone(),
		Nodes:         deps.Nodes,
		ComputeHook:   deps.ComputeHook,
		ServiceConfig: deps.ServiceConfig,
		Persistence:   deps.Persistence,
	}
	reconcileSeq := t.Sequence

	ctx, cancel := context.WithCancel(deps.Ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		if oldHandle != nil {
			oldHandle.cancel()
			<-oldHandle.done
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		worker := deps.Builder.Build(snapshot)
		err := worker.Reconcile(ctx)

		result := ReconcileResult{
			Sequence:      reconcileSeq,
			TenantShardId: snapshot.TenantShardId,
			Generation:    worker.Generation(),
			Observed:      worker.Observed(),
			Err:           err,
		}

		select {
		case deps.ResultCh <- result:
		case <-deps.Ctx.Done():
		}
	}()

	t.reconciler = &reconcilerHandle{
		sequence: t.Sequence,
		cancel:   cancel,
		done:     done,
	}

	return t.Waiter()
}
