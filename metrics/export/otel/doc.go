// Package otel provides OpenTelemetry metric exporter bindings for roleauth counters
// and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each roleauth
// metric and Int64ObservableGauge per histogram bucket. A single callback reads
// [roleauth.Machine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate machine state.
package otel
