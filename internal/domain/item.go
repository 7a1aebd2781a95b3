package domain

import (
	"context"
	"time"
)

// Item is an inventory item as exposed by the inventory collaborator.
type Item struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	ReorderLevel *int      `json:"reorder_level,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// IsLowStock reports whether the item is at or below its reorder level.
// Items without a reorder level are never low stock.
func (i Item) IsLowStock() bool {
	return i.ReorderLevel != nil && i.Quantity <= *i.ReorderLevel
}

// UsageRecord is one deduction event against an item.
type UsageRecord struct {
	ID     int64     `json:"id"`
	ItemID int64     `json:"item_id"`
	Amount int       `json:"amount"`
	Date   time.Time `json:"date"`
	Reason string    `json:"reason,omitempty"`
	User   string    `json:"user,omitempty"`
}

// Inventory is the narrow read interface the assistant consumes.
type Inventory interface {
	// FindByNameSubstring returns items whose name contains pattern,
	// case-insensitive.
	FindByNameSubstring(ctx context.Context, pattern string) ([]Item, error)
	// LowStockItems returns items with a reorder level set and
	// quantity at or below it.
	LowStockItems(ctx context.Context) ([]Item, error)
	// OutOfStockCount returns the number of items with zero quantity.
	OutOfStockCount(ctx context.Context) (int, error)
	// TotalCount returns the number of items.
	TotalCount(ctx context.Context) (int, error)
	// TotalQuantity returns the sum of all item quantities.
	TotalQuantity(ctx context.Context) (int, error)
	// HighUsageItemCount returns the number of items whose recorded
	// usage since the given time exceeds threshold units.
	HighUsageItemCount(ctx context.Context, since time.Time, threshold int) (int, error)
}
