// Package stats computes read-only sales aggregates over placed orders.
package stats

import (
	"time"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

// Summary is the aggregate view shown to staff.
type Summary struct {
	TotalCount    int
	TotalRevenue  int64
	CountByStatus map[order.Status]int
	TodayCount    int
	TodayRevenue  int64
}

// Summarize aggregates orders. "Today" is the calendar date of now in loc;
// a nil loc uses the process zone. Every lifecycle status is present in
// CountByStatus, zero when no orders carry it.
func Summarize(orders []order.Order, now time.Time, loc *time.Location) Summary {
	if loc == nil {
		loc = time.Local
	}
	summary := Summary{CountByStatus: make(map[order.Status]int, len(order.Statuses))}
	for _, status := range order.Statuses {
		summary.CountByStatus[status] = 0
	}
	ty, tm, td := now.In(loc).Date()
	for _, o := range orders {
		summary.TotalCount++
		summary.TotalRevenue += o.Total
		if o.Status.Valid() {
			summary.CountByStatus[o.Status]++
		}
		y, m, d := o.CreatedAt.In(loc).Date()
		if y == ty && m == tm && d == td {
			summary.TodayCount++
			summary.TodayRevenue += o.Total
		}
	}
	return summary
}
