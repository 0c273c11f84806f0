package order

import (
	"strings"
	"testing"
	"time"
)

func sampleOrder() Order {
	return Order{
		ID:           "ORD20261014120000-abc123",
		CustomerID:   "42",
		CustomerName: "Budi",
		Phone:        "0812",
		Address:      "Jl. X",
		Items: []CartLine{
			{ItemID: "M001", Name: "Nasi Goreng Spesial", Price: 25000},
			{ItemID: "M001", Name: "Nasi Goreng Spesial", Price: 25000},
		},
		Total:     50000,
		Status:    StatusNew,
		CreatedAt: time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr string
	}{
		{name: "valid", mutate: func(*Order) {}},
		{name: "missing id", mutate: func(o *Order) { o.ID = " " }, wantErr: "order id"},
		{name: "missing customer", mutate: func(o *Order) { o.CustomerID = "" }, wantErr: "customer id"},
		{name: "no items", mutate: func(o *Order) { o.Items = nil; o.Total = 0 }, wantErr: "at least one item"},
		{name: "total mismatch", mutate: func(o *Order) { o.Total = 1 }, wantErr: "does not match"},
		{name: "bad status", mutate: func(o *Order) { o.Status = "LOST" }, wantErr: "status"},
		{name: "negative price", mutate: func(o *Order) { o.Items[0].Price = -1; o.Total = 24999 }, wantErr: "negative"},
		{name: "zero created at", mutate: func(o *Order) { o.CreatedAt = time.Time{} }, wantErr: "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := sampleOrder()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCloneDoesNotShareItems(t *testing.T) {
	t.Parallel()
	o := sampleOrder()
	clone := o.Clone()
	clone.Items[0].Name = "changed"
	if o.Items[0].Name != "Nasi Goreng Spesial" {
		t.Fatal("clone mutated source items")
	}
}

func TestSameRecordIgnoresStatus(t *testing.T) {
	t.Parallel()
	a := sampleOrder()
	b := a.Clone()
	b.Status = StatusCompleted
	if !SameRecord(a, b) {
		t.Fatal("expected status-only change to keep the same record")
	}
	b.Items[1].Price = 1
	if SameRecord(a, b) {
		t.Fatal("expected item change to differ")
	}
}

func TestNewIDFormat(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.October, 14, 9, 8, 7, 0, time.Local)
	id := NewID(now)
	if !strings.HasPrefix(id, "ORD20261014090807-") {
		t.Fatalf("id = %q, want ORD20261014090807- prefix", id)
	}
	if len(id) != len("ORD20261014090807-")+6 {
		t.Fatalf("id length = %d", len(id))
	}
	if other := NewID(now); other == id {
		t.Fatalf("expected distinct ids within one second, got %q twice", id)
	}
	stamp, ok := IDTime(id, time.Local)
	if !ok || !stamp.Equal(now) {
		t.Fatalf("IDTime = %v, %v; want %v", stamp, ok, now)
	}
	if _, ok := IDTime("nope", nil); ok {
		t.Fatal("expected malformed id to fail")
	}
}
