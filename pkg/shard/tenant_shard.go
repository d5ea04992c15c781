package shard

import (
	"sort"

	"github.com/shardctl/controller/pkg/seqwait"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// TenantShard is the per-shard aggregate: identity, shard geometry,
// generation, policy, intent, observed state, config, the handle of any
// in-flight reconciler, waiters, and the last reconcile error. It is
// mutated only by the single-threaded control loop that owns it; see the
// package doc for the concurrency discipline this relies on.
type TenantShard struct {
	TenantShardId shardtypes.TenantShardId
	Shard         shardtypes.ShardIdentity

	// Sequence is bumped whenever Intent or Config changes. It is the
	// version that reconcile attempts chase. Starts at 1.
	Sequence shardtypes.Sequence

	// Generation is incremented whenever a new attachment is materialized
	// on a node. It is durable; Sequence is not.
	Generation shardtypes.Generation

	Policy shardtypes.PlacementPolicy
	Intent IntentState
	Observed ObservedState
	Config shardtypes.TenantConfig

	reconciler *reconcilerHandle

	doneSeq  *seqwait.SeqWait
	errorSeq *seqwait.SeqWait
	lastErr  *seqwait.ErrorHolder
}

// New creates a freshly registered TenantShard. Its sequence starts at 1,
// its generation at 0, intent and observed empty.
func New(id shardtypes.TenantShardId, identity shardtypes.ShardIdentity, policy shardtypes.PlacementPolicy) *TenantShard {
	return &TenantShard{
		TenantShardId: id,
		Shard:         identity,
		Sequence:      1,
		Generation:    0,
		Policy:        policy,
		Intent:        NewIntentState(),
		Observed:      NewObservedState(),
		doneSeq:       seqwait.New(0),
		errorSeq:      seqwait.New(0),
		lastErr:       &seqwait.ErrorHolder{},
	}
}

// DoneSeq exposes the shard's "reconciled up to" counter, for callers that
// need to construct a waiter outside of MaybeReconcile (e.g. a controller
// resuming waiters across a restart).
func (t *TenantShard) DoneSeq() *seqwait.SeqWait { return t.doneSeq }

// ErrorSeq exposes the shard's "failed up to" counter.
func (t *TenantShard) ErrorSeq() *seqwait.SeqWait { return t.errorSeq }

// Reconciling reports whether a reconcile task is currently in flight for
// this shard. Useful for metrics/status reporting; MaybeReconcile never
// consults it directly.
func (t *TenantShard) Reconciling() bool { return t.reconciler != nil }

// Waiter builds a ReconcilerWaiter targeting the shard's current sequence.
func (t *TenantShard) Waiter() *seqwait.ReconcilerWaiter {
	return seqwait.NewReconcilerWaiter(t.TenantShardId, t.doneSeq, t.errorSeq, t.lastErr, t.Sequence)
}

// Shutdown releases every waiter on this shard, present and future, with
// ReconcileWaitError Shutdown.
func (t *TenantShard) Shutdown() {
	t.doneSeq.Shutdown()
	t.errorSeq.Shutdown()
}

// IntentFromObserved seeds Intent from whatever ObservedState was learned
// at startup (persisted generations, or a fresh probe of the node set),
// even if the result violates Policy. Callers must follow this with
// Schedule to restore policy compliance; the point is to make use of
// configured locations that already exist in the outside world rather than
// discard them and reschedule from nothing.
func (t *TenantShard) IntentFromObserved() {
	type candidate struct {
		node shardtypes.NodeId
		gen  shardtypes.Generation
	}
	var attachedCandidates []candidate
	for node, loc := range t.Observed.Locations {
		if !loc.HasConf {
			continue
		}
		switch loc.Conf.Mode {
		case shardtypes.AttachedSingle, shardtypes.AttachedMulti, shardtypes.AttachedStale:
			attachedCandidates = append(attachedCandidates, candidate{node: node, gen: loc.Conf.Generation})
		}
	}

	sort.Slice(attachedCandidates, func(i, j int) bool {
		return attachedCandidates[i].gen < attachedCandidates[j].gen
	})

	var attached *shardtypes.NodeId
	if len(attachedCandidates) > 0 {
		winner := attachedCandidates[len(attachedCandidates)-1].node
		attached = &winner
	}
	t.Intent.Attached = attached

	// Every other observed node - including ones with unknown
	// configuration, which may hold usable local content - becomes a
	// secondary intent. Iterate in a stable order for determinism.
	nodes := make([]shardtypes.NodeId, 0, len(t.Observed.Locations))
	for node := range t.Observed.Locations {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	for _, node := range nodes {
		if attached != nil && node == *attached {
			continue
		}
		t.Intent.Secondary = append(t.Intent.Secondary, node)
	}
}
