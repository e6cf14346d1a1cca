// Package metrics defines the sinks that observe trip computations. Sinks
// like PromSink and InfluxSink record compute events, monthly series and
// battery health, and can be combined with NewMultiSink. The factory helpers
// return a MultiSink automatically when multiple sinks are configured.
package metrics
