package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardctl/controller/pkg/controller"
	"github.com/shardctl/controller/pkg/shard"
	"github.com/shardctl/controller/pkg/shardtypes"
)

type apiFakeScheduler struct{ nodes []shardtypes.NodeId }

func (f apiFakeScheduler) ScheduleShard(forbidden map[shardtypes.NodeId]struct{}) (shardtypes.NodeId, error) {
	for _, n := range f.nodes {
		if _, bad := forbidden[n]; !bad {
			return n, nil
		}
	}
	return 0, shard.ErrNoCapacity
}

type apiFakeNodes struct{}

func (apiFakeNodes) Availability(shardtypes.NodeId) (shardtypes.NodeAvailability, bool) {
	return shardtypes.Active, true
}

type apiFakeHook struct{}

func (apiFakeHook) Notify(context.Context, shardtypes.TenantShardId, *shardtypes.NodeId) error {
	return nil
}

type apiFakePersistence struct {
	mu  sync.Mutex
	gen shardtypes.Generation
}

func (p *apiFakePersistence) IncrementGeneration(context.Context, shardtypes.TenantShardId) (shardtypes.Generation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	return p.gen, nil
}

type apiInstantWorker struct{ snapshot shard.ReconcileSnapshot }

func (w *apiInstantWorker) Reconcile(context.Context) error { return nil }

func (w *apiInstantWorker) Observed() shard.ObservedState {
	out := shard.NewObservedState()
	if w.snapshot.Intent.Attached != nil {
		out.Locations[*w.snapshot.Intent.Attached] = shard.ObservedStateLocation{
			HasConf: true,
			Conf:    shardtypes.AttachedLocationConf(w.snapshot.Generation+1, w.snapshot.Shard, w.snapshot.Config),
		}
	}
	return out
}

func (w *apiInstantWorker) Generation() shardtypes.Generation {
	if w.snapshot.Intent.Attached == nil {
		return w.snapshot.Generation
	}
	return w.snapshot.Generation + 1
}

type apiInstantBuilder struct{}

func (apiInstantBuilder) Build(snapshot shard.ReconcileSnapshot) shard.ReconcilerWorker {
	return &apiInstantWorker{snapshot: snapshot}
}

func newTestController(t *testing.T) *controller.Controller {
	t.Helper()
	c := controller.New(controller.Deps{
		Scheduler:    apiFakeScheduler{nodes: []shardtypes.NodeId{1, 2, 3}},
		Nodes:        apiFakeNodes{},
		ComputeHook:  apiFakeHook{},
		Persistence:  &apiFakePersistence{},
		Builder:      apiInstantBuilder{},
		TickInterval: time.Hour,
	})
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)
	return c
}

func TestHandleUpdateTenant_CreatesAndReconciles(t *testing.T) {
	ctrl := newTestController(t)
	mux := newAPIMux(ctrl, zerolog.Nop(), time.Second)

	body, _ := json.Marshal(updateTenantRequest{ShardCount: 1, Policy: "single", Config: "v1"})
	req := httptest.NewRequest(http.MethodPut, "/v1/tenant/tenant-a/0", bytes.NewReader(body))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status controller.ShardStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	require.NotNil(t, status.Intent.Attached)
	assert.Equal(t, shardtypes.NodeId(1), *status.Intent.Attached)
}

func TestHandleUpdateTenant_RejectsUnknownPolicy(t *testing.T) {
	ctrl := newTestController(t)
	mux := newAPIMux(ctrl, zerolog.Nop(), time.Second)

	body, _ := json.Marshal(updateTenantRequest{ShardCount: 1, Policy: "triple"})
	req := httptest.NewRequest(http.MethodPut, "/v1/tenant/tenant-a/0", bytes.NewReader(body))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetTenant_NotFound(t *testing.T) {
	ctrl := newTestController(t)
	mux := newAPIMux(ctrl, zerolog.Nop(), time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/tenant/tenant-z/0", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
