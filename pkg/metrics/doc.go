/*
Package metrics exposes Prometheus instrumentation for the revision storage
engine: a put counter by outcome, a delete counter, change-record counters by type
(snapshot/delta/delete), hash-collision and error counters, and histograms
for operation latency and observed chain length (the quantity SNAPF is
meant to bound, see pkg/delta).

Handler returns the standard promhttp handler for embedding in whatever
HTTP mux the deployment uses; this package does not start a server itself.
*/
package metrics
