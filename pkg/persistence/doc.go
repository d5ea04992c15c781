/*
Package persistence durably stores each shard's generation, geometry,
placement policy, tenant configuration, and last-observed node state in an
embedded BoltDB database, one bucket per concern.

It implements shard.Persistence: IncrementGeneration mints and durably
records a new generation for a TenantShardId before the Reconciler worker
attaches it anywhere, upholding the "generations are durable" invariant -
the write must happen-before the RPC that uses the returned value.

It also implements pkg/controller's broader PersistenceStore surface:
SaveShard/LoadShard/ListShards and SaveObserved/LoadObserved let a
restarted controller rebuild every TenantShard's identity, policy,
config, and intent before it resumes scheduling.
*/
package persistence
