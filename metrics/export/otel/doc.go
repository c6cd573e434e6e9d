// Package otel publishes goAccount engine metrics through an OpenTelemetry
// meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter
// and one Int64ObservableGauge per latency bucket. A single callback reads
// [goAccount.Engine.MetricsSnapshot] on every collection cycle.
//
// The caller owns the MeterProvider and must call Close to unregister the
// callback.
package otel
