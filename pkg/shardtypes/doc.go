/*
Package shardtypes defines the identity, geometry, and configuration types
shared by every other package in this module.

These are plain values: no I/O, no mutexes, no methods that block. They
exist so that pkg/shard, pkg/scheduler, pkg/reconciler, pkg/persistence and
pkg/noderegistry can all agree on what a tenant shard, a node, and a
placement policy are without importing each other.

# Core Types

Identity:
  - TenantShardId: tenant id + shard index, immutable once created.
  - ShardIdentity: shard geometry (index, count, stripe size).
  - NodeId: opaque identifier for a storage/page server.

Placement:
  - PlacementPolicy: Single or Double(k), how many secondaries a shard wants.
  - Generation: durable, monotonic fencing token for attachments.
  - Sequence: in-memory, monotonic version of a shard's desired state.

Location configuration:
  - LocationConfig: what a page server should be told to run for a shard.
  - LocationConfigMode: AttachedSingle / AttachedMulti / AttachedStale / Secondary / Detached.

Tenant configuration:
  - TenantConfig: opaque per-tenant blob passed through to page servers.
*/
package shardtypes
