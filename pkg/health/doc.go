/*
Package health implements the hysteresis bookkeeping behind "is this node
up": a Config of interval/timeout/retry-threshold, a Status that tracks
consecutive successes and failures, and an HTTPChecker that performs the
actual probe.

Page servers are only ever probed over HTTP, so only an HTTPChecker is
provided; its Status/Config hysteresis machinery drives
pkg/noderegistry's availability tracking.
*/
package health
