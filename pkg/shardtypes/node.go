package shardtypes

// NodeAvailability is the node registry's best knowledge of whether a node
// can currently be reached and given work. The core only ever distinguishes
// Offline from not-Offline (a WarmingUp node counts as live there); the
// scheduler only places roles on Active nodes.
type NodeAvailability string

const (
	Active    NodeAvailability = "active"
	Offline   NodeAvailability = "offline"
	WarmingUp NodeAvailability = "warming_up"
)
