package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/liliang-cn/askstock/internal/domain"
)

// Enrichment kinds
const (
	EnrichSpecificItems = "specific_items"
	EnrichLowStock      = "low_stock"
	EnrichSummary       = "summary"
)

// EnrichedItem is an inventory item annotated for the prompt.
type EnrichedItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	ReorderLevel *int   `json:"reorder_level,omitempty"`
	LowStock     bool   `json:"low_stock"`
	Deficit      int    `json:"deficit,omitempty"`
}

// InventorySummary is the whole-inventory fallback snippet.
type InventorySummary struct {
	TotalItems    int `json:"total_items"`
	LowStockItems int `json:"low_stock_items"`
	OutOfStock    int `json:"out_of_stock"`
	TotalQuantity int `json:"total_quantity"`
}

// Enrichment is a serializable live-data snippet embedded into the prompt.
// Transient; never persisted.
type Enrichment struct {
	Kind    string            `json:"type"`
	Query   string            `json:"query,omitempty"`
	Items   []EnrichedItem    `json:"items,omitempty"`
	Summary *InventorySummary `json:"summary,omitempty"`
}

// ShouldEnrich reports whether the message warrants an inventory lookup.
func ShouldEnrich(text string, intent domain.Intent) bool {
	if intent == domain.IntentCheckStock || intent == domain.IntentLowStockAlert {
		return true
	}
	return MentionsInventory(text)
}

// Enrich queries the inventory for the data most relevant to the message:
// named items first, then the low-stock list, then a whole-inventory
// summary.
func Enrich(ctx context.Context, inv domain.Inventory, text string, cls domain.IntentClassification) (*Enrichment, error) {
	if name, ok := cls.ItemName(); ok {
		items, err := inv.FindByNameSubstring(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("search items: %w", err)
		}
		enriched := make([]EnrichedItem, 0, len(items))
		for _, item := range items {
			enriched = append(enriched, EnrichedItem{
				ID:           item.ID,
				Name:         item.Name,
				Quantity:     item.Quantity,
				ReorderLevel: item.ReorderLevel,
				LowStock:     item.IsLowStock(),
			})
		}
		return &Enrichment{Kind: EnrichSpecificItems, Query: name, Items: enriched}, nil
	}

	if strings.Contains(strings.ToLower(text), "low stock") || cls.Intent == domain.IntentLowStockAlert {
		items, err := inv.LowStockItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("low stock items: %w", err)
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Quantity < items[j].Quantity })
		enriched := make([]EnrichedItem, 0, len(items))
		for _, item := range items {
			deficit := 0
			if item.ReorderLevel != nil {
				deficit = *item.ReorderLevel - item.Quantity
			}
			enriched = append(enriched, EnrichedItem{
				ID:           item.ID,
				Name:         item.Name,
				Quantity:     item.Quantity,
				ReorderLevel: item.ReorderLevel,
				LowStock:     true,
				Deficit:      deficit,
			})
		}
		return &Enrichment{Kind: EnrichLowStock, Items: enriched}, nil
	}

	total, err := inv.TotalCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("total count: %w", err)
	}
	low, err := inv.LowStockItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("low stock items: %w", err)
	}
	out, err := inv.OutOfStockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("out of stock count: %w", err)
	}
	qty, err := inv.TotalQuantity(ctx)
	if err != nil {
		return nil, fmt.Errorf("total quantity: %w", err)
	}
	return &Enrichment{Kind: EnrichSummary, Summary: &InventorySummary{
		TotalItems:    total,
		LowStockItems: len(low),
		OutOfStock:    out,
		TotalQuantity: qty,
	}}, nil
}

// PromptText serializes the enrichment for verbatim embedding in the
// system instruction.
func (e *Enrichment) PromptText() string {
	data, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return "Current inventory data (answer from this data, do not guess):\n" + string(data)
}
