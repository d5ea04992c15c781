package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shardctl/controller/pkg/log"
	"github.com/shardctl/controller/pkg/metrics"
	"github.com/shardctl/controller/pkg/seqwait"
	"github.com/shardctl/controller/pkg/shard"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// resultQueueSize is the buffer depth of the shared reconcile-result
// channel. Sized generously so a burst of completing reconciles never
// blocks a worker goroutine on send.
const resultQueueSize = 4096

// Deps bundles everything a Controller needs beyond the shards it owns.
type Deps struct {
	Scheduler     shard.Scheduler
	Nodes         shard.NodeAvailabilitySnapshot
	ComputeHook   shard.ComputeHook
	Persistence   shard.Persistence
	Builder       shard.ReconcilerBuilder
	ServiceConfig shard.ServiceConfig

	// Store is the broader persistence surface used for startup ingestion
	// and for keeping durable state current as shards change. It is
	// optional: a nil Store means LoadFromPersistence has nothing to load
	// and UpdateConfig/applyResult skip persisting. Every concrete Store
	// also satisfies shard.Persistence, so Deps.Persistence is typically
	// just Store again.
	Store PersistenceStore

	// TickInterval is how often the sweep goroutine calls MaybeReconcile on
	// every shard to catch drift that edge-triggered callers missed.
	TickInterval time.Duration
}

// PersistenceStore is the durable-storage surface the Controller itself
// uses, beyond the narrow shard.Persistence view the reconciliation core
// consumes: enough to rebuild every TenantShard at startup and to keep
// that record current as config changes and reconciles complete.
type PersistenceStore interface {
	shard.Persistence

	LastGeneration(id shardtypes.TenantShardId) (shardtypes.Generation, bool, error)

	SaveShard(id shardtypes.TenantShardId, identity shardtypes.ShardIdentity, policy shardtypes.PlacementPolicy, cfg shardtypes.TenantConfig) error
	LoadShard(id shardtypes.TenantShardId) (shardtypes.ShardIdentity, shardtypes.PlacementPolicy, shardtypes.TenantConfig, bool, error)
	ListShards() ([]shardtypes.TenantShardId, error)

	SaveObserved(id shardtypes.TenantShardId, observed shard.ObservedState) error
	LoadObserved(id shardtypes.TenantShardId) (shard.ObservedState, bool, error)
}

// ShardStatus is a read-only snapshot of a shard's placement state, for
// callers (the CLI, a status endpoint) that only need to observe it.
type ShardStatus struct {
	TenantShardId shardtypes.TenantShardId
	Sequence      shardtypes.Sequence
	Generation    shardtypes.Generation
	Intent        shard.IntentState
	Observed      shard.ObservedState
}

// Controller owns every TenantShard and is the only thing permitted to
// mutate one. External events arrive through its exported methods; a
// background goroutine drains completed reconcile results and a second,
// ticker-driven goroutine sweeps every shard for missed drift.
type Controller struct {
	deps Deps

	mu     sync.Mutex
	shards map[shardtypes.TenantShardId]*shard.TenantShard

	resultCh chan shard.ReconcileResult
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
}

// New constructs a Controller. Call Start to begin its background loops.
func New(deps Deps) *Controller {
	if deps.TickInterval <= 0 {
		deps.TickInterval = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		deps:     deps,
		shards:   make(map[shardtypes.TenantShardId]*shard.TenantShard),
		resultCh: make(chan shard.ReconcileResult, resultQueueSize),
		logger:   log.WithComponent("controller"),
		ctx:      ctx,
		cancel:   cancel,
		stopCh:   make(chan struct{}),
	}
}

// LoadFromPersistence rebuilds every persisted shard's in-memory state
// before the controller begins scheduling: for each shard id the store
// knows about, it loads the shard's geometry/policy/config and its last
// observed node state, seeds IntentState from that observed state via
// TenantShard.IntentFromObserved, and registers the shard - all before any
// Schedule or MaybeReconcile call is made. Called once, from Start, before
// the background loops are launched. A nil Deps.Store makes this a no-op,
// which is the expected shape for tests that construct shards directly.
func (c *Controller) LoadFromPersistence(ctx context.Context) error {
	if c.deps.Store == nil {
		return nil
	}

	ids, err := c.deps.Store.ListShards()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		identity, policy, cfg, found, err := c.deps.Store.LoadShard(id)
		if err != nil {
			return err
		}
		if !found {
			continue
		}

		t := shard.New(id, identity, policy)
		t.Config = cfg

		if observed, found, err := c.deps.Store.LoadObserved(id); err != nil {
			return err
		} else if found {
			t.Observed = observed
			t.IntentFromObserved()
		}

		if gen, found, err := c.deps.Store.LastGeneration(id); err != nil {
			return err
		} else if found {
			t.Generation = gen
		}

		c.shards[id] = t
		c.logger.Info().
			Str("tenant_shard_id", id.String()).
			Msg("loaded shard from persistence")
	}

	return nil
}

// Start rebuilds persisted state (see LoadFromPersistence) and launches the
// result-drain and periodic-sweep goroutines.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.LoadFromPersistence(ctx); err != nil {
		return fmt.Errorf("load persisted shards: %w", err)
	}
	go c.drainResults()
	go c.sweep()
	c.logger.Info().Int("shards_loaded", len(c.shards)).Msg("controller started")
	return nil
}

// Stop cancels every in-flight reconcile task and releases all waiters.
func (c *Controller) Stop() {
	c.cancel()
	close(c.stopCh)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.shards {
		t.Shutdown()
	}
	c.logger.Info().Msg("controller stopped")
}

// drainResults applies completed reconcile results to their owning shard.
func (c *Controller) drainResults() {
	for {
		select {
		case result := <-c.resultCh:
			c.applyResult(result)
		case <-c.stopCh:
			return
		}
	}
}

func (c *Controller) applyResult(result shard.ReconcileResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.shards[result.TenantShardId]
	if !ok {
		return
	}
	t.ApplyReconcileResult(result)

	if c.deps.Store != nil {
		if err := c.deps.Store.SaveObserved(result.TenantShardId, t.Observed); err != nil {
			c.logger.Warn().
				Str("tenant_shard_id", result.TenantShardId.String()).
				Err(err).
				Msg("failed to persist observed state")
		}
	}

	if result.Err != nil {
		metrics.ReconcileCyclesTotal.WithLabelValues("error").Inc()
		metrics.ReconcileErrorsTotal.WithLabelValues(result.TenantShardId.String()).Inc()
		c.logger.Warn().
			Str("tenant_shard_id", result.TenantShardId.String()).
			Err(result.Err).
			Msg("reconcile attempt failed")
	} else {
		metrics.ReconcileCyclesTotal.WithLabelValues("ok").Inc()
	}

	metrics.ResultQueueDepth.Set(float64(len(c.resultCh)))
}

// sweep periodically calls Schedule and MaybeReconcile on every shard,
// catching drift that edge-triggered callers (UpdateConfig,
// NotifyNodeOffline) might have missed.
func (c *Controller) sweep() {
	ticker := time.NewTicker(c.deps.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Tick()
		case <-c.stopCh:
			return
		}
	}
}

// reconcileLocked schedules and reconciles t, under the caller's hold of
// c.mu, and returns MaybeReconcile's waiter (nil when t needed no
// reconcile). Scheduling failures are logged and otherwise ignored: the
// shard is left in its best-reachable intent and will be retried on the
// next event or sweep.
func (c *Controller) reconcileLocked(t *shard.TenantShard) *seqwait.ReconcilerWaiter {
	if err := t.Schedule(c.deps.Scheduler); err != nil {
		c.logger.Warn().
			Str("tenant_shard_id", t.TenantShardId.String()).
			Err(err).
			Msg("schedule could not fully satisfy placement policy")
	}

	deps := shard.ReconcileDeps{
		Ctx:           c.ctx,
		ResultCh:      c.resultCh,
		Nodes:         c.deps.Nodes,
		ComputeHook:   c.deps.ComputeHook,
		ServiceConfig: c.deps.ServiceConfig,
		Persistence:   c.deps.Persistence,
		Builder:       c.deps.Builder,
	}
	return t.MaybeReconcile(deps)
}

// UpdateConfig applies a tenant shard's desired placement policy and
// configuration, creating the shard with the given geometry if it is not
// already known. A known shard keeps the geometry it was created with;
// identity is ignored for it. It always schedules and attempts a reconcile
// before returning the resulting waiter, which the caller may wait on or
// discard.
func (c *Controller) UpdateConfig(id shardtypes.TenantShardId, identity shardtypes.ShardIdentity, policy shardtypes.PlacementPolicy, cfg shardtypes.TenantConfig) *seqwait.ReconcilerWaiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.shards[id]
	if !ok {
		t = shard.New(id, identity, policy)
		t.Config = cfg
		c.shards[id] = t
	} else {
		if t.Policy != policy {
			t.Policy = policy
			t.Sequence++
		}
		if t.Config != cfg {
			t.Config = cfg
			t.Sequence++
		}
	}

	if c.deps.Store != nil {
		if err := c.deps.Store.SaveShard(id, t.Shard, t.Policy, t.Config); err != nil {
			c.logger.Warn().
				Str("tenant_shard_id", id.String()).
				Err(err).
				Msg("failed to persist shard config")
		}
	}

	c.reconcileLocked(t)
	return t.Waiter()
}

// NotifyNodeOffline downgrades every shard currently attached to node,
// rescheduling and reconciling each one that changed.
func (c *Controller) NotifyNodeOffline(node shardtypes.NodeId) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.shards {
		if !t.Intent.NotifyOffline(node) {
			continue
		}
		t.Sequence++
		c.reconcileLocked(t)
	}
}

// Tick performs one sweep: Schedule and MaybeReconcile on every known
// shard. Safe to call directly (e.g. from a test) as well as from the
// background sweep goroutine.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	dirty := 0
	inFlight := 0
	for _, t := range c.shards {
		if c.reconcileLocked(t) != nil {
			dirty++
		}
		if t.Reconciling() {
			inFlight++
		}
	}
	metrics.DirtyShardsTotal.Set(float64(dirty))
	metrics.InFlightReconcilesTotal.Set(float64(inFlight))
}

// Status returns a read-only snapshot of one shard's placement state.
func (c *Controller) Status(id shardtypes.TenantShardId) (ShardStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.shards[id]
	if !ok {
		return ShardStatus{}, false
	}
	return ShardStatus{
		TenantShardId: t.TenantShardId,
		Sequence:      t.Sequence,
		Generation:    t.Generation,
		Intent:        t.Intent.Clone(),
		Observed:      t.Observed.Clone(),
	}, true
}

// ListShards returns every shard id currently known, in no particular
// order.
func (c *Controller) ListShards() []shardtypes.TenantShardId {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]shardtypes.TenantShardId, 0, len(c.shards))
	for id := range c.shards {
		out = append(out, id)
	}
	return out
}
