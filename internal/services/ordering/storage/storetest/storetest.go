// Package storetest holds behavior checks shared by every OrderStore
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/storage"
)

// Opener returns a fresh, empty store for one subtest.
type Opener func(t *testing.T) storage.OrderStore

// SampleOrder returns a valid NEW order created at createdAt.
func SampleOrder(id, customerID string, createdAt time.Time) order.Order {
	items := []order.CartLine{
		{ItemID: "M001", Name: "Nasi Goreng Spesial", Price: 25000, Description: "Nasi goreng"},
		{ItemID: "M001", Name: "Nasi Goreng Spesial", Price: 25000, Description: "Nasi goreng"},
	}
	return order.Order{
		ID:           id,
		CustomerID:   customerID,
		CustomerName: "Budi",
		Phone:        "0812",
		Address:      "Jl. X",
		Items:        items,
		Total:        order.Total(items),
		Status:       order.StatusNew,
		CreatedAt:    createdAt,
	}
}

// Run exercises the OrderStore contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Helper()
	base := time.Date(2026, time.October, 14, 9, 30, 0, 123000000, time.UTC)

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		all, err := store.LoadAll(context.Background())
		if err != nil {
			t.Fatalf("load all: %v", err)
		}
		if all.Len() != 0 {
			t.Fatalf("len = %d, want 0", all.Len())
		}
		if _, err := store.Get(context.Background(), "ORD-missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("get err = %v, want ErrNotFound", err)
		}
	})

	t.Run("create then load round trips", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		ctx := context.Background()
		want := SampleOrder("ORD20261014093000-aaaaaa", "42", base)
		if err := store.Create(ctx, want); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := store.Get(ctx, want.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !order.SameRecord(want, got) || got.Status != want.Status {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("create rejects duplicate id", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		ctx := context.Background()
		first := SampleOrder("ORD20261014093000-dup000", "1", base)
		if err := store.Create(ctx, first); err != nil {
			t.Fatalf("create: %v", err)
		}
		second := SampleOrder(first.ID, "2", base.Add(time.Second))
		if err := store.Create(ctx, second); !errors.Is(err, storage.ErrAlreadyExists) {
			t.Fatalf("err = %v, want ErrAlreadyExists", err)
		}
		got, err := store.Get(ctx, first.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.CustomerID != "1" {
			t.Fatalf("first order was overwritten: %+v", got)
		}
	})

	t.Run("load all keeps insertion order", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		ctx := context.Background()
		ids := []string{"ORD-c", "ORD-a", "ORD-b"}
		for i, id := range ids {
			if err := store.Create(ctx, SampleOrder(id, "1", base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("create %s: %v", id, err)
			}
		}
		all, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("load all: %v", err)
		}
		got := all.IDs()
		if fmt.Sprint(got) != fmt.Sprint(ids) {
			t.Fatalf("ids = %v, want %v", got, ids)
		}
	})

	t.Run("update changes status only", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		ctx := context.Background()
		o := SampleOrder("ORD-update", "1", base)
		if err := store.Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
		updated, err := store.Update(ctx, o.ID, func(current *order.Order) error {
			current.Status = order.StatusProcessing
			return nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Status != order.StatusProcessing {
			t.Fatalf("status = %s", updated.Status)
		}
		got, _ := store.Get(ctx, o.ID)
		if got.Status != order.StatusProcessing || !order.SameRecord(o, got) {
			t.Fatalf("stored = %+v", got)
		}

		_, err = store.Update(ctx, o.ID, func(current *order.Order) error {
			current.Address = "elsewhere"
			return nil
		})
		if !errors.Is(err, storage.ErrImmutableField) {
			t.Fatalf("err = %v, want ErrImmutableField", err)
		}
	})

	t.Run("update missing order", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		_, err := store.Update(context.Background(), "ORD-none", func(*order.Order) error { return nil })
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("mutator error leaves record unchanged", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		ctx := context.Background()
		o := SampleOrder("ORD-abort", "1", base)
		if err := store.Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
		stop := errors.New("stop")
		_, err := store.Update(ctx, o.ID, func(current *order.Order) error {
			current.Status = order.StatusCompleted
			return stop
		})
		if !errors.Is(err, stop) {
			t.Fatalf("err = %v, want stop", err)
		}
		if got, _ := store.Get(ctx, o.ID); got.Status != order.StatusNew {
			t.Fatalf("status = %s, want NEW", got.Status)
		}
	})

	t.Run("find by customer oldest first", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		ctx := context.Background()
		orders := []order.Order{
			SampleOrder("ORD-2", "42", base.Add(2*time.Hour)),
			SampleOrder("ORD-x", "7", base),
			SampleOrder("ORD-1", "42", base.Add(time.Hour)),
		}
		for _, o := range orders {
			if err := store.Create(ctx, o); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		got, err := store.FindByCustomer(ctx, "42")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) != 2 || got[0].ID != "ORD-1" || got[1].ID != "ORD-2" {
			t.Fatalf("orders = %+v", got)
		}
		none, err := store.FindByCustomer(ctx, "nobody")
		if err != nil || len(none) != 0 {
			t.Fatalf("none = %+v, %v", none, err)
		}
	})

	t.Run("concurrent updates to different orders", func(t *testing.T) {
		t.Parallel()
		store := open(t)
		ctx := context.Background()
		const n = 8
		for i := 0; i < n; i++ {
			if err := store.Create(ctx, SampleOrder(fmt.Sprintf("ORD-%d", i), "1", base)); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := store.Update(ctx, id, func(current *order.Order) error {
					current.Status = order.StatusProcessing
					return nil
				})
				errs <- err
			}(fmt.Sprintf("ORD-%d", i))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("update: %v", err)
			}
		}
		all, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("load all: %v", err)
		}
		for _, o := range all.Orders() {
			if o.Status != order.StatusProcessing {
				t.Fatalf("order %s lost its update: %s", o.ID, o.Status)
			}
		}
	})
}
