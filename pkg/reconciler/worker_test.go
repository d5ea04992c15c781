package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardctl/controller/pkg/shard"
	"github.com/shardctl/controller/pkg/shardtypes"
)

type fakeClient struct {
	upserts []shardtypes.NodeId
	deletes []shardtypes.NodeId
	failOn  map[shardtypes.NodeId]error
}

func (f *fakeClient) UpsertLocation(_ context.Context, addr string, _ shardtypes.TenantShardId, conf shardtypes.LocationConfig) error {
	id := addrToNode[addr]
	if err := f.failOn[id]; err != nil {
		return err
	}
	f.upserts = append(f.upserts, id)
	return nil
}

func (f *fakeClient) DeleteLocation(_ context.Context, addr string, _ shardtypes.TenantShardId) error {
	id := addrToNode[addr]
	if err := f.failOn[id]; err != nil {
		return err
	}
	f.deletes = append(f.deletes, id)
	return nil
}

// addrToNode lets the fake client recover which node an address belongs to
// without needing a real address book lookup in each assertion.
var addrToNode = map[string]shardtypes.NodeId{
	"node-7": 7,
	"node-8": 8,
	"node-9": 9,
}

type fakeAddressBook struct{}

func (fakeAddressBook) Address(id shardtypes.NodeId) (string, bool) {
	for addr, n := range addrToNode {
		if n == id {
			return addr, true
		}
	}
	return "", false
}

type fakeComputeHook struct {
	notified *shardtypes.NodeId
	called   bool
}

func (f *fakeComputeHook) Notify(_ context.Context, _ shardtypes.TenantShardId, attached *shardtypes.NodeId) error {
	f.called = true
	f.notified = attached
	return nil
}

type fakePersistence struct{ next shardtypes.Generation }

func (f *fakePersistence) IncrementGeneration(context.Context, shardtypes.TenantShardId) (shardtypes.Generation, error) {
	f.next++
	return f.next, nil
}

func baseSnapshot() shard.ReconcileSnapshot {
	return shard.ReconcileSnapshot{
		TenantShardId: shardtypes.TenantShardId{TenantId: "tenant-a", ShardIndex: 0},
		Shard:         shardtypes.ShardIdentity{Count: 1},
		Generation:    0,
		Observed:      shard.NewObservedState(),
		Persistence:   &fakePersistence{},
		ComputeHook:   &fakeComputeHook{},
	}
}

func TestReconcile_AttachesFreshNodeWithNewGeneration(t *testing.T) {
	snapshot := baseSnapshot()
	n := shardtypes.NodeId(7)
	snapshot.Intent.Attached = &n

	client := &fakeClient{failOn: map[shardtypes.NodeId]error{}}
	w := NewWorker(snapshot, client, fakeAddressBook{})

	require.NoError(t, w.Reconcile(context.Background()))

	assert.Equal(t, []shardtypes.NodeId{7}, client.upserts)
	assert.Equal(t, shardtypes.Generation(1), w.Generation())

	loc := w.Observed().Locations[7]
	assert.True(t, loc.HasConf)
	assert.Equal(t, shardtypes.Generation(1), loc.Conf.Generation)

	hook := snapshot.ComputeHook.(*fakeComputeHook)
	assert.True(t, hook.called)
	require.NotNil(t, hook.notified)
	assert.Equal(t, n, *hook.notified)
}

func TestReconcile_SkipsAlreadyMatchingAttached(t *testing.T) {
	snapshot := baseSnapshot()
	n := shardtypes.NodeId(7)
	snapshot.Intent.Attached = &n
	snapshot.Generation = 3
	wanted := shardtypes.AttachedLocationConf(3, snapshot.Shard, snapshot.Config)
	snapshot.Observed.Locations[7] = shard.ObservedStateLocation{HasConf: true, Conf: wanted}

	client := &fakeClient{}
	w := NewWorker(snapshot, client, fakeAddressBook{})
	require.NoError(t, w.Reconcile(context.Background()))

	assert.Empty(t, client.upserts, "no RPC needed when observed already matches wanted")
	assert.Equal(t, shardtypes.Generation(3), w.Generation())
}

func TestReconcile_UpsertsSecondaryWithoutNewGeneration(t *testing.T) {
	snapshot := baseSnapshot()
	n := shardtypes.NodeId(8)
	snapshot.Intent.Secondary = []shardtypes.NodeId{n}

	client := &fakeClient{}
	w := NewWorker(snapshot, client, fakeAddressBook{})
	require.NoError(t, w.Reconcile(context.Background()))

	assert.Equal(t, []shardtypes.NodeId{8}, client.upserts)
	assert.Equal(t, shardtypes.Generation(0), w.Generation(), "secondary roles never mint a generation")
}

func TestReconcile_DeletesUnwantedLocations(t *testing.T) {
	snapshot := baseSnapshot()
	snapshot.Observed.Locations[9] = shard.ObservedStateLocation{HasConf: true}
	// Intent is empty: node 9 is no longer wanted anywhere.

	client := &fakeClient{}
	w := NewWorker(snapshot, client, fakeAddressBook{})
	require.NoError(t, w.Reconcile(context.Background()))

	assert.Equal(t, []shardtypes.NodeId{9}, client.deletes)
	_, stillPresent := w.Observed().Locations[9]
	assert.False(t, stillPresent)
}

func TestReconcile_UpsertFailureLeavesPresentUnknown(t *testing.T) {
	snapshot := baseSnapshot()
	n := shardtypes.NodeId(7)
	snapshot.Intent.Attached = &n

	client := &fakeClient{failOn: map[shardtypes.NodeId]error{7: errors.New("rpc failed")}}
	w := NewWorker(snapshot, client, fakeAddressBook{})

	err := w.Reconcile(context.Background())
	assert.Error(t, err)

	loc := w.Observed().Locations[7]
	assert.False(t, loc.HasConf, "a failed upsert leaves the node present-unknown")
}

func TestReconcile_CanceledBeforeStartReturnsImmediately(t *testing.T) {
	snapshot := baseSnapshot()
	n := shardtypes.NodeId(7)
	snapshot.Intent.Attached = &n

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{}
	w := NewWorker(snapshot, client, fakeAddressBook{})
	err := w.Reconcile(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.upserts)
}
