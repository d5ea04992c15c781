package shard

import (
	"context"
	"sync"

	"github.com/shardctl/controller/pkg/shardtypes"
)

// fakeScheduler hands out nodes from a fixed list in order, skipping any
// that are forbidden.
type fakeScheduler struct {
	nodes []shardtypes.NodeId
	next  int
}

func (f *fakeScheduler) ScheduleShard(forbidden map[shardtypes.NodeId]struct{}) (shardtypes.NodeId, error) {
	for f.next < len(f.nodes) {
		n := f.nodes[f.next]
		f.next++
		if _, bad := forbidden[n]; !bad {
			return n, nil
		}
	}
	return 0, ErrNoCapacity
}

type fakeNodes struct {
	avail map[shardtypes.NodeId]shardtypes.NodeAvailability
}

func (f fakeNodes) Availability(id shardtypes.NodeId) (shardtypes.NodeAvailability, bool) {
	a, ok := f.avail[id]
	return a, ok
}

type fakeComputeHook struct{}

func (fakeComputeHook) Notify(context.Context, shardtypes.TenantShardId, *shardtypes.NodeId) error {
	return nil
}

type fakePersistence struct{}

func (fakePersistence) IncrementGeneration(context.Context, shardtypes.TenantShardId) (shardtypes.Generation, error) {
	return 1, nil
}

// fakeWorker is a controllable ReconcilerWorker: it can block until a test
// releases it (or until its context is canceled), and returns a
// preconfigured error and observed state.
type fakeWorker struct {
	release  chan struct{}
	err      error
	observed ObservedState
	gen      shardtypes.Generation
}

func (w *fakeWorker) Reconcile(ctx context.Context) error {
	if w.release != nil {
		select {
		case <-w.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return w.err
}

func (w *fakeWorker) Observed() ObservedState            { return w.observed }
func (w *fakeWorker) Generation() shardtypes.Generation  { return w.gen }

// fakeBuilder records every worker it builds, in build order, and builds
// each one via a caller-supplied factory so tests can control per-call
// behavior (e.g. the first call blocks, the second doesn't).
type fakeBuilder struct {
	mu      sync.Mutex
	built   []*fakeWorker
	factory func(snapshot ReconcileSnapshot, callIndex int) *fakeWorker
}

func (b *fakeBuilder) Build(snapshot ReconcileSnapshot) ReconcilerWorker {
	b.mu.Lock()
	idx := len(b.built)
	w := b.factory(snapshot, idx)
	b.built = append(b.built, w)
	b.mu.Unlock()
	return w
}

func (b *fakeBuilder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.built)
}
