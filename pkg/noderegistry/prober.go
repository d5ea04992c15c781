package noderegistry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shardctl/controller/pkg/health"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// Prober checks a single node and reports whether it is reachable. The
// default implementation probes the node's status endpoint over HTTP;
// tests substitute their own.
type Prober interface {
	Probe(ctx context.Context, address string) error
}

// HTTPProber builds a pkg/health.HTTPChecker against each node's /v1/status
// endpoint on the fly, one per probe, since the address being probed
// changes from call to call.
type HTTPProber struct {
	Timeout time.Duration
}

// NewHTTPProber returns an HTTPProber with a sensible default timeout.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{Timeout: 5 * time.Second}
}

func (p *HTTPProber) Probe(ctx context.Context, address string) error {
	checker := health.NewHTTPChecker(fmt.Sprintf("http://%s/v1/status", address))
	checker.WithTimeout(p.Timeout)

	result := checker.Check(ctx)
	if !result.Healthy {
		return fmt.Errorf("probe %s: %s", address, result.Message)
	}
	return nil
}

// OnOffline is called once, synchronously, for every node whose probe
// reports a fresh transition into shardtypes.Offline. Run's caller wires
// this to Controller.NotifyNodeOffline so a node failing its health probe
// immediately reschedules whatever was attached there, rather than waiting
// for the next unrelated config change or sweep.
type OnOffline func(id shardtypes.NodeId)

// Run polls every registered node once per interval until ctx is canceled,
// updating availability via health.Status hysteresis, logging any
// transition, and invoking onOffline for every node that just went
// Offline. onOffline may be nil. It never returns until ctx is done.
func (r *Registry) Run(ctx context.Context, prober Prober, interval time.Duration, logger zerolog.Logger, onOffline OnOffline) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.probeAll(ctx, prober, logger, onOffline)
		}
	}
}

func (r *Registry) probeAll(ctx context.Context, prober Prober, logger zerolog.Logger, onOffline OnOffline) {
	for id, node := range r.Snapshot() {
		err := prober.Probe(ctx, node.Address)
		result := health.Result{Healthy: err == nil}
		changed, newAvail := r.recordProbe(id, result)
		if changed {
			logger.Info().
				Uint64("node_id", uint64(id)).
				Str("address", node.Address).
				Str("availability", string(newAvail)).
				Msg("node availability changed")
			if newAvail == shardtypes.Offline && onOffline != nil {
				onOffline(id)
			}
		}
	}
}
