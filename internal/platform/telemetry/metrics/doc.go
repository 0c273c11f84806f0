// Package metrics provides Prometheus collectors for the bot process.
//
//   - restobot_updates_total{kind,outcome}: inbound updates by kind and result code
//   - restobot_update_duration_ms{kind}: update handling latency
//   - restobot_orders_created_total: orders minted by checkout
//   - restobot_order_transitions_total{to}: staff status transitions
//
// Collectors register on a caller-supplied registry so tests and multiple
// servers in one process never collide on the global default registry.
package metrics
