package shardtypes

import "fmt"

// NodeId identifies a storage/page server. Opaque beyond ordering, which
// exists only to give deterministic output in logs and tests.
type NodeId uint64

// Sequence is the in-memory, monotonic version of a shard's desired state.
// It is bumped whenever intent or config changes and is the value that
// reconcile attempts chase. It is never persisted.
type Sequence uint64

// Generation is the durable, monotonic fencing token associated with an
// attachment. A page server rejects any request tagged with a generation
// less than or equal to the one it currently has installed. Unlike
// Sequence, Generation survives restarts.
type Generation uint32

// TenantId is the opaque identifier of a tenant, shared by all shards that
// belong to it.
type TenantId string

// TenantShardId is the identity of a single shard of a tenant's data: the
// unit of placement. Immutable once created.
type TenantShardId struct {
	TenantId   TenantId
	ShardIndex uint8
}

func (id TenantShardId) String() string {
	return fmt.Sprintf("%s-%02x", id.TenantId, id.ShardIndex)
}

// ShardIdentity is the shard's geometry: which slice of the tenant's
// keyspace it owns. Immutable per shard.
type ShardIdentity struct {
	Number     uint8
	Count      uint8
	StripeSize uint32
}
