// Package telemetry groups restobot's operational observability.
//
// Order records are the durable business journal and live in the order
// stores. Telemetry only captures non-mutating observations about the process:
// update counts and latency, order creation and status transition counts.
// Metrics are exported in Prometheus format by telemetry/metrics; traces are
// configured by platform/otel.
package telemetry
