package noderegistry

import (
	"sync"
	"time"

	"github.com/shardctl/controller/pkg/health"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// Node is everything the registry tracks about a page server.
type Node struct {
	ID           shardtypes.NodeId
	Address      string
	Availability shardtypes.NodeAvailability
}

// nodeStatus pairs a Node with the health.Status hysteresis tracking its
// probe history.
type nodeStatus struct {
	node   Node
	status *health.Status
	config health.Config
}

// failureThreshold is how many consecutive failed probes move a node to
// Offline. One success is always enough to move it back.
const failureThreshold = 3

// Registry is the mutable store of known nodes and their current
// availability. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	nodes map[shardtypes.NodeId]*nodeStatus
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{nodes: make(map[shardtypes.NodeId]*nodeStatus)}
}

// Upsert registers a node or updates its address if already known. Freshly
// registered nodes start WarmingUp until the first successful probe.
func (r *Registry) Upsert(id shardtypes.NodeId, address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.nodes[id]; ok {
		existing.node.Address = address
		return
	}
	config := health.DefaultConfig()
	config.Retries = failureThreshold
	r.nodes[id] = &nodeStatus{
		node:   Node{ID: id, Address: address, Availability: shardtypes.WarmingUp},
		status: health.NewStatus(),
		config: config,
	}
}

// Remove drops a node from the registry entirely.
func (r *Registry) Remove(id shardtypes.NodeId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, id)
}

// Get returns the node's current state, or false if it is not registered.
func (r *Registry) Get(id shardtypes.NodeId) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.nodes[id]
	if !ok {
		return Node{}, false
	}
	return st.node, true
}

// Address returns the host:port a node's page server API listens on.
// Implements pkg/reconciler's AddressBook.
func (r *Registry) Address(id shardtypes.NodeId) (string, bool) {
	n, ok := r.Get(id)
	if !ok {
		return "", false
	}
	return n.Address, true
}

// Availability implements shard.NodeAvailabilitySnapshot.
func (r *Registry) Availability(id shardtypes.NodeId) (shardtypes.NodeAvailability, bool) {
	n, ok := r.Get(id)
	if !ok {
		return "", false
	}
	return n.Availability, true
}

// SetAvailability forces a node's availability directly, bypassing probe
// hysteresis. Intended for administrative overrides (operator-initiated
// drain/undrain) and for seeding state at startup; the background prober
// will happily overwrite it again on its next cycle.
func (r *Registry) SetAvailability(id shardtypes.NodeId, avail shardtypes.NodeAvailability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.nodes[id]; ok {
		st.node.Availability = avail
		st.status = health.NewStatus()
	}
}

// Snapshot returns a copy of every known node, keyed by id.
func (r *Registry) Snapshot() map[shardtypes.NodeId]Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[shardtypes.NodeId]Node, len(r.nodes))
	for id, st := range r.nodes {
		out[id] = st.node
	}
	return out
}

// recordProbe folds one probe result into the node's health.Status and
// returns true if the node's availability changed as a result. A single
// healthy probe always moves a node to Active; Offline requires
// failureThreshold consecutive failures, matching health.Status.Update's
// hysteresis.
func (r *Registry) recordProbe(id shardtypes.NodeId, result health.Result) (changed bool, newAvail shardtypes.NodeAvailability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.nodes[id]
	if !ok {
		return false, ""
	}

	before := st.node.Availability
	result.CheckedAt = time.Now()
	st.status.Update(result, st.config)
	if result.Healthy {
		st.node.Availability = shardtypes.Active
	} else if !st.status.Healthy {
		st.node.Availability = shardtypes.Offline
	}

	return before != st.node.Availability, st.node.Availability
}
