/*
Package controller is the single-threaded control loop that owns every
TenantShard and drives it through pkg/shard's Schedule/MaybeReconcile
contract: external events (config changes, node-offline notifications,
the periodic tick from a sweep goroutine) are applied under a single
mutex, so only one of them touches shard state at a time, and a separate
goroutine drains completed reconcile results off a shared channel.

Controller is the only thing in this module allowed to call
shard.TenantShard's mutating methods; everything upstream of it
(cmd/shardctl's HTTP API and CLI) talks to Controller, never to a
TenantShard directly. LoadFromPersistence rebuilds every shard Controller
knew about before a restart, seeding each one's intent from its
last-persisted observed state before Start's background loops begin.
*/
package controller
