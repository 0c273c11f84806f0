package order

import "testing"

func TestTransitions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusNew, StatusProcessing, true},
		{StatusProcessing, StatusDelivering, true},
		{StatusDelivering, StatusCompleted, true},
		{StatusNew, StatusDelivering, false},
		{StatusNew, StatusCompleted, false},
		{StatusProcessing, StatusNew, false},
		{StatusCompleted, StatusNew, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusNew, StatusNew, false},
		{StatusUnspecified, StatusNew, false},
	}
	for _, tt := range tests {
		if got := IsTransitionAllowed(tt.from, tt.to); got != tt.allowed {
			t.Fatalf("IsTransitionAllowed(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestWireLabelsRoundTrip(t *testing.T) {
	t.Parallel()
	want := map[Status]string{
		StatusNew:        "baru",
		StatusProcessing: "diproses",
		StatusDelivering: "dikirim",
		StatusCompleted:  "selesai",
	}
	for _, status := range Statuses {
		label := status.WireLabel()
		if label != want[status] {
			t.Fatalf("%s wire label = %q, want %q", status, label, want[status])
		}
		parsed, ok := ParseStatus(label)
		if !ok || parsed != status {
			t.Fatalf("ParseStatus(%q) = %s, %v", label, parsed, ok)
		}
	}
	if StatusUnspecified.Valid() {
		t.Fatal("unspecified status must be invalid")
	}
}

func TestParseStatusAcceptsKeywords(t *testing.T) {
	t.Parallel()
	tests := map[string]Status{
		"NEW":         StatusNew,
		" processing": StatusProcessing,
		"delivery":    StatusDelivering,
		"Completed":   StatusCompleted,
	}
	for input, want := range tests {
		got, ok := ParseStatus(input)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %s, %v; want %s", input, got, ok, want)
		}
	}
	if _, ok := ParseStatus("cancelled"); ok {
		t.Fatal("expected unknown status to fail")
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()
	if !FilterAll.IsAll() || !FilterAll.Matches(StatusCompleted) {
		t.Fatal("FilterAll must match everything")
	}
	f := FilterStatus(StatusNew)
	if f.IsAll() || !f.Matches(StatusNew) || f.Matches(StatusProcessing) {
		t.Fatal("status filter mismatch")
	}
	if f.String() != "new" || FilterAll.String() != "all" {
		t.Fatalf("filter strings = %q, %q", f.String(), FilterAll.String())
	}
	parsed, ok := ParseFilter(f.String())
	if !ok || parsed != f {
		t.Fatalf("ParseFilter(%q) = %v, %v", f.String(), parsed, ok)
	}
	if all, ok := ParseFilter("ALL"); !ok || !all.IsAll() {
		t.Fatal("expected ALL filter")
	}
	if _, ok := ParseFilter("bogus"); ok {
		t.Fatal("expected bogus filter to fail")
	}
}
