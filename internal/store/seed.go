package store

import (
	"context"
	"fmt"

	"github.com/canteenconnect/api/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultMenu is the starter canteen menu used by the seeder and by the
// in-memory dev store.
func DefaultMenu() []model.MenuItem {
	return []model.MenuItem{
		{Name: "Cheeseburger", Description: "Beef patty, cheddar, pickles and house sauce", Price: decimal.RequireFromString("8.99"), Available: true},
		{Name: "Latte", Description: "Double shot espresso with steamed milk", Price: decimal.RequireFromString("4.50"), Available: true},
		{Name: "Margherita Pizza", Description: "Tomato, mozzarella and basil", Price: decimal.RequireFromString("12.99"), Available: true},
		{Name: "Caesar Salad", Description: "Romaine, parmesan, croutons and caesar dressing", Price: decimal.RequireFromString("7.50"), Available: true},
		{Name: "Spaghetti Bolognese", Description: "Slow-cooked beef ragu", Price: decimal.RequireFromString("11.50"), Available: false},
		{Name: "Club Sandwich", Description: "Chicken, bacon, lettuce and tomato", Price: decimal.RequireFromString("9.99"), Available: true},
	}
}

// MenuSeeder is satisfied by both stores.
type MenuSeeder interface {
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]model.MenuItem, error)
	CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
}

// SeedMenu inserts the items whose names are not on the menu yet and returns
// how many were created.
func SeedMenu(ctx context.Context, s MenuSeeder, items []model.MenuItem) (int, error) {
	existing, err := s.ListMenuItems(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("list menu items: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[m.Name] = true
	}

	created := 0
	for _, item := range items {
		if have[item.Name] {
			continue
		}
		if _, err := s.CreateMenuItem(ctx, item); err != nil {
			return created, fmt.Errorf("create menu item %q: %w", item.Name, err)
		}
		have[item.Name] = true
		created++
	}
	return created, nil
}
