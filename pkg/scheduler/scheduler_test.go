package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardctl/controller/pkg/noderegistry"
	"github.com/shardctl/controller/pkg/shard"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// forceActive marks every given node Active, bypassing probe hysteresis -
// the scheduler only cares about the registry's current view, not how it
// got there.
func forceActive(r *noderegistry.Registry, ids ...shardtypes.NodeId) {
	for _, id := range ids {
		r.SetAvailability(id, shardtypes.Active)
	}
}

func TestScheduleShard_PicksLowestAllocationRatio(t *testing.T) {
	r := noderegistry.New()
	r.Upsert(shardtypes.NodeId(1), "a")
	r.Upsert(shardtypes.NodeId(2), "b")
	forceActive(r, shardtypes.NodeId(1), shardtypes.NodeId(2))

	s := New(r)
	s.SetCapacity(
		NodeCapacity{NodeID: 1, Capacity: 10},
		NodeCapacity{NodeID: 2, Capacity: 10},
	)
	s.Reserve(shardtypes.NodeId(1))
	s.Reserve(shardtypes.NodeId(1))
	s.Reserve(shardtypes.NodeId(1))

	picked, err := s.ScheduleShard(nil)
	require.NoError(t, err)
	assert.Equal(t, shardtypes.NodeId(2), picked, "node 2 has a lower allocation ratio")
}

func TestScheduleShard_ExcludesForbidden(t *testing.T) {
	r := noderegistry.New()
	r.Upsert(shardtypes.NodeId(1), "a")
	r.Upsert(shardtypes.NodeId(2), "b")
	forceActive(r, shardtypes.NodeId(1), shardtypes.NodeId(2))

	s := New(r)
	s.SetCapacity(
		NodeCapacity{NodeID: 1, Capacity: 10},
		NodeCapacity{NodeID: 2, Capacity: 10},
	)

	forbidden := map[shardtypes.NodeId]struct{}{1: {}}
	picked, err := s.ScheduleShard(forbidden)
	require.NoError(t, err)
	assert.Equal(t, shardtypes.NodeId(2), picked)
}

func TestScheduleShard_ExcludesNonActive(t *testing.T) {
	r := noderegistry.New()
	r.Upsert(shardtypes.NodeId(1), "a") // left WarmingUp, never forced Active

	s := New(r)
	s.SetCapacity(NodeCapacity{NodeID: 1, Capacity: 10})

	_, err := s.ScheduleShard(nil)
	assert.ErrorIs(t, err, shard.ErrNoCapacity)
}

func TestScheduleShard_NoCapacityWhenFull(t *testing.T) {
	r := noderegistry.New()
	r.Upsert(shardtypes.NodeId(1), "a")
	forceActive(r, shardtypes.NodeId(1))

	s := New(r)
	s.SetCapacity(NodeCapacity{NodeID: 1, Capacity: 1})
	s.Reserve(shardtypes.NodeId(1))

	_, err := s.ScheduleShard(nil)
	assert.ErrorIs(t, err, shard.ErrNoCapacity)
}

func TestScheduleShard_ReleaseFreesCapacity(t *testing.T) {
	r := noderegistry.New()
	r.Upsert(shardtypes.NodeId(1), "a")
	forceActive(r, shardtypes.NodeId(1))

	s := New(r)
	s.SetCapacity(NodeCapacity{NodeID: 1, Capacity: 1})
	s.Reserve(shardtypes.NodeId(1))
	s.Release(shardtypes.NodeId(1))

	picked, err := s.ScheduleShard(nil)
	require.NoError(t, err)
	assert.Equal(t, shardtypes.NodeId(1), picked)
}
