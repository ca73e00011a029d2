// Package prometheus provides Prometheus collectors for roleauth metrics.
//
// [NewPrometheusExporter] accepts a [roleauth.Machine] and exposes an [http.Handler]
// that renders all roleauth counters and histograms in Prometheus text exposition
// format. Counter names are prefixed roleauth_*_total; the single histogram is
// roleauth_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate machine state.
package prometheus
