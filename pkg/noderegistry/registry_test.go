package noderegistry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardctl/controller/pkg/health"
	"github.com/shardctl/controller/pkg/shardtypes"
)

type scriptedProber struct {
	healthy map[string]bool
}

func (s scriptedProber) Probe(_ context.Context, address string) error {
	if s.healthy[address] {
		return nil
	}
	return errors.New("unreachable")
}

func TestRegistry_UpsertStartsWarmingUp(t *testing.T) {
	r := New()
	r.Upsert(shardtypes.NodeId(1), "10.0.0.1:9100")

	n, ok := r.Get(shardtypes.NodeId(1))
	require.True(t, ok)
	assert.Equal(t, shardtypes.WarmingUp, n.Availability)
}

func TestRegistry_OfflineRequiresThreeConsecutiveFailures(t *testing.T) {
	r := New()
	id := shardtypes.NodeId(1)
	r.Upsert(id, "10.0.0.1:9100")

	for i := 0; i < 2; i++ {
		changed, avail := r.recordProbe(id, health.Result{Healthy: false})
		assert.False(t, changed, "availability should not flip before the threshold")
		assert.Equal(t, shardtypes.WarmingUp, avail)
	}

	changed, avail := r.recordProbe(id, health.Result{Healthy: false})
	assert.True(t, changed)
	assert.Equal(t, shardtypes.Offline, avail)
}

func TestRegistry_OneSuccessRecoversFromOffline(t *testing.T) {
	r := New()
	id := shardtypes.NodeId(1)
	r.Upsert(id, "10.0.0.1:9100")
	for i := 0; i < 3; i++ {
		r.recordProbe(id, health.Result{Healthy: false})
	}
	n, _ := r.Get(id)
	require.Equal(t, shardtypes.Offline, n.Availability)

	changed, avail := r.recordProbe(id, health.Result{Healthy: true})
	assert.True(t, changed)
	assert.Equal(t, shardtypes.Active, avail)
}

func TestRegistry_RunAppliesProbesPeriodically(t *testing.T) {
	r := New()
	r.Upsert(shardtypes.NodeId(1), "good:9100")
	r.Upsert(shardtypes.NodeId(2), "bad:9100")

	prober := scriptedProber{healthy: map[string]bool{"good:9100": true}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	var offlined []shardtypes.NodeId

	done := make(chan struct{})
	go func() {
		r.Run(ctx, prober, 5*time.Millisecond, zerolog.Nop(), func(id shardtypes.NodeId) {
			mu.Lock()
			offlined = append(offlined, id)
			mu.Unlock()
		})
		close(done)
	}()
	<-done

	good, _ := r.Get(shardtypes.NodeId(1))
	assert.Equal(t, shardtypes.Active, good.Availability)

	bad, _ := r.Get(shardtypes.NodeId(2))
	assert.Equal(t, shardtypes.Offline, bad.Availability, "three failed ticks within the window should mark it offline")

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, offlined, shardtypes.NodeId(2))
	assert.NotContains(t, offlined, shardtypes.NodeId(1))
}

func TestRegistry_AvailabilityUnknownNode(t *testing.T) {
	r := New()
	_, ok := r.Availability(shardtypes.NodeId(99))
	assert.False(t, ok)
}
