/*
Package metrics exposes Prometheus instrumentation for the controller: a
flat var block of counters, gauges, and a histogram, registered once in
init, plus a small Timer helper for histogram observations.

These cover what the placement core itself never measures: reconcile
cycle counts, durations, failures, and the depth of work the controller
is currently carrying.
*/
package metrics
