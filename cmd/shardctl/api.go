package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/shardctl/controller/pkg/controller"
	"github.com/shardctl/controller/pkg/shardtypes"
)

// updateTenantRequest is the PUT /v1/tenant/{tenant}/{shard} request body:
// everything UpdateConfig needs beyond the id embedded in the path.
type updateTenantRequest struct {
	ShardCount     uint8  `json:"shard_count"`
	StripeSize     uint32 `json:"stripe_size"`
	Policy         string `json:"policy"` // "single" or "double"
	SecondaryCount int    `json:"secondary_count"`
	Config         string `json:"config"`
}

func (req updateTenantRequest) toPolicy() (shardtypes.PlacementPolicy, error) {
	switch req.Policy {
	case "", "single":
		return shardtypes.PlacementPolicySingle(), nil
	case "double":
		return shardtypes.PlacementPolicyDouble(req.SecondaryCount), nil
	default:
		return shardtypes.PlacementPolicy{}, fmt.Errorf("unknown policy %q", req.Policy)
	}
}

// newAPIMux builds the HTTP API the control plane is driven through:
// PUT /v1/tenant/{tenant}/{shard} creates or updates a tenant shard's
// geometry, placement policy, and configuration, mirroring
// Controller.UpdateConfig. waitTimeout bounds how long the handler blocks
// for the resulting reconcile before responding 202 instead of 200.
func newAPIMux(ctrl *controller.Controller, logger zerolog.Logger, waitTimeout time.Duration) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /v1/tenant/{tenant}/{shard}", handleUpdateTenant(ctrl, logger, waitTimeout))
	mux.HandleFunc("GET /v1/tenant/{tenant}/{shard}", handleGetTenant(ctrl))
	return mux
}

func handleUpdateTenant(ctrl *controller.Controller, logger zerolog.Logger, waitTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseTenantShardId(w, r)
		if !ok {
			return
		}

		var req updateTenantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("decode request body: %v", err), http.StatusBadRequest)
			return
		}

		policy, err := req.toPolicy()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		identity := shardtypes.ShardIdentity{
			Number:     id.ShardIndex,
			Count:      req.ShardCount,
			StripeSize: req.StripeSize,
		}
		cfg := shardtypes.TenantConfig{Raw: req.Config}

		waiter := ctrl.UpdateConfig(id, identity, policy, cfg)

		ctx, cancel := context.WithTimeout(r.Context(), waitTimeout)
		defer cancel()

		status := http.StatusOK
		if err := waiter.WaitTimeout(ctx, waitTimeout); err != nil {
			logger.Info().
				Str("tenant_shard_id", id.String()).
				Err(err).
				Msg("update accepted, reconcile still pending")
			status = http.StatusAccepted
		}

		writeStatus(w, ctrl, id, status)
	}
}

func handleGetTenant(ctrl *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseTenantShardId(w, r)
		if !ok {
			return
		}
		if _, found := ctrl.Status(id); !found {
			http.Error(w, "tenant shard not found", http.StatusNotFound)
			return
		}
		writeStatus(w, ctrl, id, http.StatusOK)
	}
}

func writeStatus(w http.ResponseWriter, ctrl *controller.Controller, id shardtypes.TenantShardId, status int) {
	snapshot, _ := ctrl.Status(id)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(snapshot)
}

func parseTenantShardId(w http.ResponseWriter, r *http.Request) (shardtypes.TenantShardId, bool) {
	tenant := r.PathValue("tenant")
	shardStr := r.PathValue("shard")
	if tenant == "" || shardStr == "" {
		http.Error(w, "tenant and shard path segments are required", http.StatusBadRequest)
		return shardtypes.TenantShardId{}, false
	}

	idx, err := strconv.ParseUint(shardStr, 10, 8)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid shard index %q: %v", shardStr, err), http.StatusBadRequest)
		return shardtypes.TenantShardId{}, false
	}

	return shardtypes.TenantShardId{TenantId: shardtypes.TenantId(tenant), ShardIndex: uint8(idx)}, true
}
