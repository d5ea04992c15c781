package shard

import (
	"errors"

	"github.com/shardctl/controller/pkg/shardtypes"
)

// ErrNoCapacity is the sentinel ScheduleError reason: the Scheduler could
// not find a node to satisfy a placement request.
var ErrNoCapacity = errors.New("scheduler: no capacity")

// Scheduler is the narrow interface this package consumes to pick a node
// for a new attached or secondary role. Implementations live in
// pkg/scheduler; this package never looks inside one.
type Scheduler interface {
	// ScheduleShard picks a node not present in forbidden. It returns
	// ErrNoCapacity if none is available.
	ScheduleShard(forbidden map[shardtypes.NodeId]struct{}) (shardtypes.NodeId, error)
}

func forbiddenSet(nodes []shardtypes.NodeId) map[shardtypes.NodeId]struct{} {
	set := make(map[shardtypes.NodeId]struct{}, len(nodes))
	for _, n := range nodes {
		set[n] = struct{}{}
	}
	return set
}

// Schedule rewrites Intent to satisfy Policy, invoking scheduler as needed,
// and bumps Sequence if anything changed. On ErrNoCapacity, whatever
// mutations were already made are kept - intent is left in the best state
// reachable - so the next Schedule call continues from there.
func (t *TenantShard) Schedule(scheduler Scheduler) (err error) {
	used := t.Intent.AllPageservers()
	modified := false
	defer func() {
		if err != nil && modified {
			t.Sequence++
		}
	}()

	switch t.Policy.Kind {
	case shardtypes.Single:
		if t.Intent.Attached == nil {
			node, err := scheduler.ScheduleShard(forbiddenSet(used))
			if err != nil {
				return err
			}
			t.Intent.Attached = &node
			used = append(used, node)
			modified = true
		}
		if len(t.Intent.Secondary) > 0 {
			t.Intent.Secondary = nil
			modified = true
		}

	case shardtypes.Double:
		if t.Intent.Attached == nil {
			node, err := scheduler.ScheduleShard(forbiddenSet(used))
			if err != nil {
				return err
			}
			t.Intent.Attached = &node
			used = append(used, node)
			modified = true
		}
		for len(t.Intent.Secondary) < t.Policy.SecondaryCount {
			node, err := scheduler.ScheduleShard(forbiddenSet(used))
			if err != nil {
				return err
			}
			t.Intent.Secondary = append(t.Intent.Secondary, node)
			used = append(used, node)
			modified = true
		}
	}

	if modified {
		t.Sequence++
	}
	return nil
}
