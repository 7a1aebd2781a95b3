package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/liliang-cn/askstock/internal/domain"
)

// ItemRepository handles inventory item queries. It is the concrete
// implementation of domain.Inventory.
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// FindByNameSubstring returns items whose name contains pattern,
// case-insensitive.
func (r *ItemRepository) FindByNameSubstring(ctx context.Context, pattern string) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, quantity, reorder_level, last_updated
		FROM items
		WHERE name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY name ASC
	`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

// LowStockItems returns items with a reorder level set and quantity at or
// below it, lowest quantity first.
func (r *ItemRepository) LowStockItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, quantity, reorder_level, last_updated
		FROM items
		WHERE reorder_level IS NOT NULL AND quantity <= reorder_level
		ORDER BY quantity ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

// OutOfStockCount returns the number of items with zero quantity.
func (r *ItemRepository) OutOfStockCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE quantity = 0`).Scan(&count)
	return count, err
}

// TotalCount returns the number of items.
func (r *ItemRepository) TotalCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	return count, err
}

// TotalQuantity returns the sum of all item quantities.
func (r *ItemRepository) TotalQuantity(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM items`).Scan(&total)
	return total, err
}

// HighUsageItemCount returns the number of items whose recorded usage since
// the given time exceeds threshold units.
func (r *ItemRepository) HighUsageItemCount(ctx context.Context, since time.Time, threshold int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT item_id FROM usage_records
			WHERE date >= ?
			GROUP BY item_id
			HAVING SUM(amount) > ?
		)
	`, since, threshold).Scan(&count)
	return count, err
}

// RecordUsage stores a deduction event for an item.
func (r *ItemRepository) RecordUsage(ctx context.Context, rec *domain.UsageRecord) error {
	if rec.Date.IsZero() {
		rec.Date = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO usage_records (item_id, amount, date, reason, user)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ItemID, rec.Amount, rec.Date, rec.Reason, rec.User)
	if err != nil {
		return err
	}
	rec.ID, err = res.LastInsertId()
	return err
}

func scanItems(rows *sql.Rows) ([]domain.Item, error) {
	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		var reorderLevel sql.NullInt64

		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity,
			&reorderLevel, &item.LastUpdated); err != nil {
			return nil, err
		}

		if reorderLevel.Valid {
			level := int(reorderLevel.Int64)
			item.ReorderLevel = &level
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
