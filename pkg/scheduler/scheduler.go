package scheduler

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shardctl/controller/pkg/log"
	"github.com/shardctl/controller/pkg/noderegistry"
	"github.com/shardctl/controller/pkg/shard"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// NodeCapacity is the declared shard capacity for one node. Nodes absent
// from the scheduler's capacity table are treated as capacity zero and
// never selected.
type NodeCapacity struct {
	NodeID   shardtypes.NodeId
	Capacity int
}

// Scheduler implements shard.Scheduler, picking nodes by headroom among
// whatever the registry currently reports Active.
type Scheduler struct {
	registry *noderegistry.Registry
	logger   zerolog.Logger

	mu        sync.Mutex
	capacity  map[shardtypes.NodeId]int
	allocated map[shardtypes.NodeId]int
}

// New creates a Scheduler backed by the given node registry.
func New(registry *noderegistry.Registry) *Scheduler {
	return &Scheduler{
		registry:  registry,
		logger:    log.WithComponent("scheduler"),
		capacity:  make(map[shardtypes.NodeId]int),
		allocated: make(map[shardtypes.NodeId]int),
	}
}

// SetCapacity records (or updates) a node's declared shard capacity.
func (s *Scheduler) SetCapacity(nodes ...NodeCapacity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		s.capacity[n.NodeID] = n.Capacity
	}
}

// Reserve records that one more shard role has landed on node, for future
// headroom calculations.
func (s *Scheduler) Reserve(node shardtypes.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocated[node]++
}

// Release records that a shard role has left node.
func (s *Scheduler) Release(node shardtypes.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allocated[node] > 0 {
		s.allocated[node]--
	}
}

// ScheduleShard implements shard.Scheduler.
func (s *Scheduler) ScheduleShard(forbidden map[shardtypes.NodeId]struct{}) (shardtypes.NodeId, error) {
	candidates := s.eligible(forbidden)
	if len(candidates) == 0 {
		return 0, shard.ErrNoCapacity
	}

	best := candidates[0]
	s.mu.Lock()
	s.allocated[best]++
	s.mu.Unlock()

	s.logger.Debug().Uint64("node_id", uint64(best)).Msg("scheduled shard role")
	return best, nil
}

// eligible returns every Active, non-forbidden node with spare capacity,
// sorted by headroom ratio (most headroom first), breaking ties by node id.
func (s *Scheduler) eligible(forbidden map[shardtypes.NodeId]struct{}) []shardtypes.NodeId {
	snapshot := s.registry.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	type scored struct {
		id    shardtypes.NodeId
		ratio float64
	}
	var candidates []scored
	for id, node := range snapshot {
		if node.Availability != shardtypes.Active {
			continue
		}
		if _, bad := forbidden[id]; bad {
			continue
		}
		nodeCap := s.capacity[id]
		if nodeCap <= 0 {
			continue
		}
		alloc := s.allocated[id]
		if alloc >= nodeCap {
			continue
		}
		candidates = append(candidates, scored{id: id, ratio: float64(alloc) / float64(nodeCap)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ratio != candidates[j].ratio {
			return candidates[i].ratio < candidates[j].ratio
		}
		return candidates[i].id < candidates[j].id
	})

	out := make([]shardtypes.NodeId, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}
