/*
Package computehook notifies a compute layer whenever a shard's attached
location changes, so query routing can follow placement without polling.

A single dispatch goroutine reads AttachmentChanged events off a buffered
channel and fans them out to every current subscriber without blocking.
Notify implements shard.ComputeHook; delivery is at-most-once and
best-effort, matching the core's own result-channel send philosophy - a
slow or absent subscriber never blocks a reconcile attempt.
*/
package computehook
