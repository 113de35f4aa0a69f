// Package metrics exposes Prometheus counters for the request gates and webhook
// processing. Every method is safe to call on a nil *Recorder so components can take
// an optional recorder without branching.
package metrics
