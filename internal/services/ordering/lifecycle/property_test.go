package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/storage/jsonfile"
	"github.com/louisbranch/restobot/internal/services/ordering/storage/storetest"
)

func statusRank(s order.Status) int {
	for i, candidate := range order.Statuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// TestStatusIsMonotonic applies random advance requests and checks the stored
// status only ever moves forward one step at a time.
func TestStatusIsMonotonic(t *testing.T) {
	t.Parallel()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)
	dir := t.TempDir()
	run := 0

	properties.Property("status never skips or reverses", prop.ForAll(
		func(targets []int) bool {
			run++
			ctx := context.Background()
			store, err := jsonfile.Open(filepath.Join(dir, fmt.Sprintf("orders-%d.json", run)))
			if err != nil {
				return false
			}
			seed := storetest.SampleOrder("ORD-P", "1", time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC))
			if err := store.Create(ctx, seed); err != nil {
				return false
			}
			manager := NewManager(store, nil)
			previous := order.StatusNew
			for _, target := range targets {
				_, err := manager.Advance(ctx, "ORD-P", order.Statuses[target])
				current, getErr := manager.Get(ctx, "ORD-P")
				if getErr != nil {
					return false
				}
				step := statusRank(current.Status) - statusRank(previous)
				if err == nil && step != 1 {
					return false
				}
				if err != nil && step != 0 {
					return false
				}
				previous = current.Status
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(order.Statuses)-1)),
	))

	properties.TestingRun(t)
}
