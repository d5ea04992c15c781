package shard

import "github.com/shardctl/controller/pkg/shardtypes"

// dirty is a pure predicate: true if a reconcile is required to bring the
// observed world into agreement with intent. It is a pure function of
// (Intent, Observed, Generation, Shard, Config) - called twice with no
// intervening mutation it returns the same value.
func (t *TenantShard) dirty() bool {
	if t.Intent.Attached != nil {
		wanted := shardtypes.AttachedLocationConf(t.Generation, t.Shard, t.Config)
		if !locationMatches(t.Observed, *t.Intent.Attached, wanted) {
			return true
		}
	}

	for _, node := range t.Intent.Secondary {
		wanted := shardtypes.SecondaryLocationConf(t.Shard, t.Config)
		if !locationMatches(t.Observed, node, wanted) {
			return true
		}
	}

	return false
}

// locationMatches reports whether node is present in observed with a known
// configuration equal to wanted. Absence and present-unknown both count as
// a mismatch.
func locationMatches(observed ObservedState, node shardtypes.NodeId, wanted shardtypes.LocationConfig) bool {
	loc, ok := observed.Locations[node]
	if !ok || !loc.HasConf {
		return false
	}
	return loc.Conf == wanted
}
