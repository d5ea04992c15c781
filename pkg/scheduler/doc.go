/*
Package scheduler picks which page server a shard's attached or secondary
role should land on.

It implements shard.Scheduler: ScheduleShard(forbidden) (NodeId, error).
Selection considers every node the registry reports Active, excludes
anything in forbidden, and prefers the node with the most headroom -
lowest ratio of shards already allocated here to declared capacity -
breaking ties by node id for determinism.

The scheduler's own allocated-count bookkeeping is a heuristic only: it
never reads or writes shard intent or observed state. ScheduleShard adds
one to the count of every node it returns, and Reserve/Release adjust a
count directly; no other package in this module calls Reserve or
Release, so counts are not lowered when a shard role leaves a node.
*/
package scheduler
