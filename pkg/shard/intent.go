package shard

import "github.com/shardctl/controller/pkg/shardtypes"

// IntentState is the desired placement for a shard: at most one attached
// node, plus an ordered list of secondaries. It is a pure value - no I/O,
// no locking - and carries its own invariants:
//
//  1. Attached never appears in Secondary.
//  2. Entries in Secondary are pairwise distinct.
type IntentState struct {
	Attached  *shardtypes.NodeId
	Secondary []shardtypes.NodeId
}

// NewIntentState returns an empty IntentState.
func NewIntentState() IntentState {
	return IntentState{}
}

// SingleIntent returns an IntentState with the given (possibly nil)
// attached node and no secondaries.
func SingleIntent(node *shardtypes.NodeId) IntentState {
	return IntentState{Attached: node}
}

// AllPageservers returns Attached (if set) followed by Secondary, in that
// order, with no de-duplication beyond what the data-model invariants
// already guarantee.
func (i *IntentState) AllPageservers() []shardtypes.NodeId {
	result := make([]shardtypes.NodeId, 0, len(i.Secondary)+1)
	if i.Attached != nil {
		result = append(result, *i.Attached)
	}
	result = append(result, i.Secondary...)
	return result
}

// NotifyOffline downgrades node from attached to secondary if it is
// currently attached. It deliberately does not remove node from the node
// set entirely: downgrading to secondary preserves any cached state should
// the node come back. Returns true if a change was made, in which case the
// caller is responsible for bumping the shard's sequence.
func (i *IntentState) NotifyOffline(node shardtypes.NodeId) bool {
	if i.Attached == nil || *i.Attached != node {
		return false
	}
	i.Attached = nil
	if !i.hasSecondary(node) {
		i.Secondary = append(i.Secondary, node)
	}
	return true
}

// Clone returns an independent copy, safe to hand to a background
// reconcile task.
func (i *IntentState) Clone() IntentState {
	out := IntentState{}
	if i.Attached != nil {
		n := *i.Attached
		out.Attached = &n
	}
	if len(i.Secondary) > 0 {
		out.Secondary = append([]shardtypes.NodeId(nil), i.Secondary...)
	}
	return out
}

// hasSecondary reports whether node is present in Secondary.
func (i *IntentState) hasSecondary(node shardtypes.NodeId) bool {
	for _, s := range i.Secondary {
		if s == node {
			return true
		}
	}
	return false
}
