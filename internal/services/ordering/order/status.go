package order

import "strings"

// Status describes the order lifecycle label used by staff transitions.
type Status string

const (
	StatusUnspecified Status = ""
	StatusNew         Status = "NEW"
	StatusProcessing  Status = "PROCESSING"
	StatusDelivering  Status = "DELIVERING"
	StatusCompleted   Status = "COMPLETED"
)

// Statuses lists every lifecycle status in lifecycle order.
var Statuses = []Status{StatusNew, StatusProcessing, StatusDelivering, StatusCompleted}

// wireLabels is the fixed mapping to the persisted document labels.
var wireLabels = map[Status]string{
	StatusNew:        "baru",
	StatusProcessing: "diproses",
	StatusDelivering: "dikirim",
	StatusCompleted:  "selesai",
}

// Valid reports whether s is one of the four lifecycle statuses.
func (s Status) Valid() bool {
	_, ok := wireLabels[s]
	return ok
}

// WireLabel returns the persisted label for s ("baru", "diproses", ...).
func (s Status) WireLabel() string {
	return wireLabels[s]
}

// Next returns the unique legal successor of s.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusNew:
		return StatusProcessing, true
	case StatusProcessing:
		return StatusDelivering, true
	case StatusDelivering:
		return StatusCompleted, true
	default:
		return StatusUnspecified, false
	}
}

// IsTransitionAllowed reports whether to is the unique legal successor of from.
func IsTransitionAllowed(from, to Status) bool {
	next, ok := from.Next()
	return ok && next == to
}

// ParseStatus canonicalizes persisted labels, canonical names, and the short
// action keywords used by staff controls.
func ParseStatus(value string) (Status, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StatusUnspecified, false
	}
	switch strings.ToLower(trimmed) {
	case "new", "baru":
		return StatusNew, true
	case "processing", "diproses":
		return StatusProcessing, true
	case "delivering", "delivery", "dikirim":
		return StatusDelivering, true
	case "completed", "selesai":
		return StatusCompleted, true
	default:
		return StatusUnspecified, false
	}
}

// Filter selects orders by status; the zero value selects every order.
type Filter struct {
	status Status
}

// FilterAll matches every order.
var FilterAll = Filter{}

// FilterStatus matches orders in status s.
func FilterStatus(s Status) Filter {
	return Filter{status: s}
}

// ParseFilter decodes "all" or any status label accepted by ParseStatus.
func ParseFilter(value string) (Filter, bool) {
	if strings.EqualFold(strings.TrimSpace(value), "all") {
		return FilterAll, true
	}
	status, ok := ParseStatus(value)
	if !ok {
		return Filter{}, false
	}
	return FilterStatus(status), true
}

// Status returns the filtered status; ok is false for FilterAll.
func (f Filter) Status() (Status, bool) {
	return f.status, f.status != StatusUnspecified
}

// IsAll reports whether f matches every order.
func (f Filter) IsAll() bool {
	return f.status == StatusUnspecified
}

// Matches reports whether an order in status s passes the filter.
func (f Filter) Matches(s Status) bool {
	return f.IsAll() || f.status == s
}

// String returns "all" or the lower-case canonical status name.
func (f Filter) String() string {
	if f.IsAll() {
		return "all"
	}
	return strings.ToLower(string(f.status))
}
