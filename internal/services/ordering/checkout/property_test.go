package checkout

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/louisbranch/restobot/internal/services/ordering/menu"
	"github.com/louisbranch/restobot/internal/services/ordering/session"
	"github.com/louisbranch/restobot/internal/services/ordering/storage/jsonfile"
)

// TestCartTotalMatchesAppends checks that any sequence of appends yields an
// order whose item count and total match what was appended.
func TestCartTotalMatchesAppends(t *testing.T) {
	catalog := menu.Default()
	var itemIDs []string
	for _, category := range catalog.Categories() {
		for _, item := range category.Items {
			itemIDs = append(itemIDs, item.ID)
		}
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)
	dir := t.TempDir()
	run := 0

	properties.Property("order total equals sum of appended prices", prop.ForAll(
		func(picks []int) bool {
			if len(picks) == 0 {
				return true
			}
			chosen := make([]string, len(picks))
			for i, pick := range picks {
				chosen[i] = itemIDs[pick]
			}
			run++
			ctx := context.Background()
			orders, err := jsonfile.Open(filepath.Join(dir, fmt.Sprintf("orders-%d.json", run)))
			if err != nil {
				return false
			}
			sessions := session.NewMemoryStore()
			machine := NewMachine(sessions, orders)

			var want int64
			for _, id := range chosen {
				item, err := catalog.Item(id)
				if err != nil {
					return false
				}
				want += item.Price
				if _, err := sessions.AppendToCart(ctx, "c", item.Snapshot()); err != nil {
					return false
				}
			}
			current, _ := sessions.Get(ctx, "c")
			if len(current.Cart) != len(chosen) {
				return false
			}
			if _, err := machine.Begin(ctx, "c"); err != nil {
				return false
			}
			var outcome Outcome
			for _, text := range []string{"n", "p", "a"} {
				outcome, err = machine.HandleText(ctx, "c", text)
				if err != nil {
					return false
				}
			}
			return outcome.Order != nil &&
				len(outcome.Order.Items) == len(chosen) &&
				outcome.Order.Total == want
		},
		gen.SliceOf(gen.IntRange(0, len(itemIDs)-1)),
	))

	properties.TestingRun(t)
}
