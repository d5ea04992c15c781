package shard

import "github.com/shardctl/controller/pkg/shardtypes"

// ObservedStateLocation is our best-effort knowledge of one node's current
// configuration for a shard. A node absent from ObservedState.Locations
// means we are certain nothing is configured there; see ObservedState for
// the meaning of the two cases a present entry can carry.
type ObservedStateLocation struct {
	// Conf is the last successfully installed configuration. HasConf is
	// false when a prior attempt crashed partway and the true state is
	// uncertain (present-unknown) - that node must be reconciled.
	Conf    shardtypes.LocationConfig
	HasConf bool
}

// ObservedState is our best-effort knowledge of each node's current
// configuration for a shard. Mutation happens exclusively through
// ApplyReconcileResult, except for startup ingestion (IntentFromObserved's
// caller is expected to have populated Locations directly beforehand).
type ObservedState struct {
	Locations map[shardtypes.NodeId]ObservedStateLocation
}

// NewObservedState returns an empty ObservedState.
func NewObservedState() ObservedState {
	return ObservedState{Locations: make(map[shardtypes.NodeId]ObservedStateLocation)}
}

// Clone returns an independent copy, safe to hand to a background
// reconcile task or to receive as part of a ReconcileResult.
func (o *ObservedState) Clone() ObservedState {
	out := ObservedState{Locations: make(map[shardtypes.NodeId]ObservedStateLocation, len(o.Locations))}
	for k, v := range o.Locations {
		out.Locations[k] = v
	}
	return out
}
