package reconciler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shardctl/controller/pkg/log"
	"github.com/shardctl/controller/pkg/shard"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// PageServerClient is the narrow transport contract this package consumes.
// pkg/pageserverclient implements it; tests substitute their own.
type PageServerClient interface {
	UpsertLocation(ctx context.Context, addr string, shard shardtypes.TenantShardId, conf shardtypes.LocationConfig) error
	DeleteLocation(ctx context.Context, addr string, shard shardtypes.TenantShardId) error
}

// AddressBook resolves a node id to the host:port its page server API
// listens on. pkg/noderegistry implements it.
type AddressBook interface {
	Address(id shardtypes.NodeId) (address string, ok bool)
}

// Worker is a one-shot implementation of shard.ReconcilerWorker, built
// fresh for each reconcile attempt from an immutable snapshot.
type Worker struct {
	snapshot shard.ReconcileSnapshot
	client   PageServerClient
	nodes    AddressBook
	logger   zerolog.Logger

	observed   shard.ObservedState
	generation shardtypes.Generation
}

// NewWorker constructs a Worker. Called by Builder.Build, never directly by
// pkg/shard.
func NewWorker(snapshot shard.ReconcileSnapshot, client PageServerClient, nodes AddressBook) *Worker {
	return &Worker{
		snapshot:   snapshot,
		client:     client,
		nodes:      nodes,
		logger:     log.WithShard(string(snapshot.TenantShardId.TenantId), snapshot.TenantShardId.ShardIndex),
		observed:   snapshot.Observed.Clone(),
		generation: snapshot.Generation,
	}
}

// Observed implements shard.ReconcilerWorker.
func (w *Worker) Observed() shard.ObservedState { return w.observed }

// Generation implements shard.ReconcilerWorker.
func (w *Worker) Generation() shardtypes.Generation { return w.generation }

// Reconcile implements shard.ReconcilerWorker.
func (w *Worker) Reconcile(ctx context.Context) error {
	intent := w.snapshot.Intent

	if intent.Attached != nil {
		if err := w.reconcileAttached(ctx, *intent.Attached); err != nil {
			return err
		}
	}

	for _, node := range intent.Secondary {
		if err := checkCanceled(ctx); err != nil {
			return err
		}
		if err := w.reconcileSecondary(ctx, node); err != nil {
			return err
		}
	}

	if err := w.reconcileDetachments(ctx, intent.AllPageservers()); err != nil {
		return err
	}

	if err := w.snapshot.ComputeHook.Notify(ctx, w.snapshot.TenantShardId, intent.Attached); err != nil {
		w.logger.Warn().Err(err).Msg("compute hook notification failed")
	}

	return nil
}

func (w *Worker) reconcileAttached(ctx context.Context, node shardtypes.NodeId) error {
	if err := checkCanceled(ctx); err != nil {
		return err
	}

	wanted := shardtypes.AttachedLocationConf(w.generation, w.snapshot.Shard, w.snapshot.Config)
	if loc, ok := w.observed.Locations[node]; ok && loc.HasConf && loc.Conf == wanted {
		return nil
	}

	newGen, err := w.snapshot.Persistence.IncrementGeneration(ctx, w.snapshot.TenantShardId)
	if err != nil {
		return fmt.Errorf("mint generation: %w", err)
	}
	w.generation = newGen
	wanted = shardtypes.AttachedLocationConf(w.generation, w.snapshot.Shard, w.snapshot.Config)

	addr, ok := w.nodes.Address(node)
	if !ok {
		return fmt.Errorf("no address known for node %d", node)
	}
	if err := w.client.UpsertLocation(ctx, addr, w.snapshot.TenantShardId, wanted); err != nil {
		w.observed.Locations[node] = shard.ObservedStateLocation{}
		return err
	}
	w.observed.Locations[node] = shard.ObservedStateLocation{HasConf: true, Conf: wanted}
	return nil
}

func (w *Worker) reconcileSecondary(ctx context.Context, node shardtypes.NodeId) error {
	wanted := shardtypes.SecondaryLocationConf(w.snapshot.Shard, w.snapshot.Config)
	if loc, ok := w.observed.Locations[node]; ok && loc.HasConf && loc.Conf == wanted {
		return nil
	}

	addr, ok := w.nodes.Address(node)
	if !ok {
		return fmt.Errorf("no address known for node %d", node)
	}
	if err := w.client.UpsertLocation(ctx, addr, w.snapshot.TenantShardId, wanted); err != nil {
		w.observed.Locations[node] = shard.ObservedStateLocation{}
		return err
	}
	w.observed.Locations[node] = shard.ObservedStateLocation{HasConf: true, Conf: wanted}
	return nil
}

// reconcileDetachments removes any page server location the shard no
// longer wants, i.e. every node present in observed but absent from
// wantedNodes.
func (w *Worker) reconcileDetachments(ctx context.Context, wantedNodes []shardtypes.NodeId) error {
	wanted := make(map[shardtypes.NodeId]struct{}, len(wantedNodes))
	for _, n := range wantedNodes {
		wanted[n] = struct{}{}
	}

	for node := range w.observed.Locations {
		if _, keep := wanted[node]; keep {
			continue
		}
		if err := checkCanceled(ctx); err != nil {
			return err
		}
		addr, ok := w.nodes.Address(node)
		if !ok {
			delete(w.observed.Locations, node)
			continue
		}
		if err := w.client.DeleteLocation(ctx, addr, w.snapshot.TenantShardId); err != nil {
			return err
		}
		delete(w.observed.Locations, node)
	}
	return nil
}

func checkCanceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
