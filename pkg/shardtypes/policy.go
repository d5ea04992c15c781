package shardtypes

// PolicyKind tags the variant of a PlacementPolicy.
type PolicyKind int

const (
	// Single means exactly one attached node and zero secondaries.
	Single PolicyKind = iota
	// Double means exactly one attached node and SecondaryCount secondaries.
	Double
)

// PlacementPolicy is a tagged variant describing how many locations a shard
// should be placed on. It is provided externally (not computed by this
// module) and passed to TenantShard.Schedule.
type PlacementPolicy struct {
	Kind PolicyKind

	// SecondaryCount is only meaningful when Kind == Double.
	SecondaryCount int
}

// PlacementPolicySingle returns the Single policy.
func PlacementPolicySingle() PlacementPolicy {
	return PlacementPolicy{Kind: Single}
}

// PlacementPolicyDouble returns the Double(k) policy.
func PlacementPolicyDouble(k int) PlacementPolicy {
	return PlacementPolicy{Kind: Double, SecondaryCount: k}
}
