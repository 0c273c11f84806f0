// Package menu holds the read-only restaurant catalog grouped by category.
package menu

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

// Item is one orderable dish or drink.
type Item struct {
	ID          string
	Name        string
	Price       int64
	Description string
}

// Snapshot copies the item into a cart line so later catalog edits do not
// change what the customer ordered.
func (i Item) Snapshot() order.CartLine {
	return order.CartLine{
		ItemID:      i.ID,
		Name:        i.Name,
		Price:       i.Price,
		Description: i.Description,
	}
}

// Category groups items under a stable key.
type Category struct {
	Key   string
	Name  string
	Items []Item
}

// Catalog indexes categories and items for lookup. It is immutable after New.
type Catalog struct {
	categories []Category
	byKey      map[string]int
	byItem     map[string]Item
}

// New validates categories and builds a catalog. Category keys and item IDs
// must be unique across the whole catalog and prices non-negative.
func New(categories []Category) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		byKey:      make(map[string]int, len(categories)),
		byItem:     make(map[string]Item),
	}
	for _, category := range categories {
		key := strings.TrimSpace(category.Key)
		if key == "" {
			return nil, fmt.Errorf("category key is required")
		}
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate category %q", key)
		}
		items := make([]Item, len(category.Items))
		copy(items, category.Items)
		for _, item := range items {
			if strings.TrimSpace(item.ID) == "" {
				return nil, fmt.Errorf("category %q has an item without id", key)
			}
			if _, dup := c.byItem[item.ID]; dup {
				return nil, fmt.Errorf("duplicate menu item %q", item.ID)
			}
			if item.Price < 0 {
				return nil, fmt.Errorf("menu item %q has negative price", item.ID)
			}
			c.byItem[item.ID] = item
		}
		c.byKey[key] = len(c.categories)
		c.categories = append(c.categories, Category{Key: key, Name: category.Name, Items: items})
	}
	return c, nil
}

// MustNew is New for static catalogs; it panics on invalid input.
func MustNew(categories []Category) *Catalog {
	c, err := New(categories)
	if err != nil {
		panic(err)
	}
	return c
}

// Categories returns every category in display order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, category := range c.categories {
		out[i] = cloneCategory(category)
	}
	return out
}

// Category returns the category stored under key.
func (c *Catalog) Category(key string) (Category, error) {
	idx, ok := c.byKey[key]
	if !ok {
		return Category{}, apperrors.WithMetadata(
			apperrors.CodeCategoryNotFound,
			"category not found",
			map[string]string{"Category": key},
		)
	}
	return cloneCategory(c.categories[idx]), nil
}

// Item returns the menu item with id.
func (c *Catalog) Item(id string) (Item, error) {
	item, ok := c.byItem[id]
	if !ok {
		return Item{}, apperrors.WithMetadata(
			apperrors.CodeMenuItemNotFound,
			"menu item not found",
			map[string]string{"ItemID": id},
		)
	}
	return item, nil
}

func cloneCategory(category Category) Category {
	items := make([]Item, len(category.Items))
	copy(items, category.Items)
	category.Items = items
	return category
}
