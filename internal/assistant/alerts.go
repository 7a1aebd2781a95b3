package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liliang-cn/askstock/internal/domain"
)

// HighUsageThreshold is the per-item daily usage above which an item counts
// as high-usage.
const HighUsageThreshold = 20

// ComputeAlerts builds the on-demand alert list: low stock, out of stock,
// and unusually high usage today.
func ComputeAlerts(ctx context.Context, inv domain.Inventory, now time.Time) ([]domain.Alert, error) {
	var alerts []domain.Alert

	low, err := inv.LowStockItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("low stock items: %w", err)
	}
	if len(low) > 0 {
		alerts = append(alerts, domain.Alert{
			Message:   fmt.Sprintf("%d item(s) at or below reorder level", len(low)),
			Severity:  domain.SeverityWarning,
			Timestamp: now,
			ActionTag: "review_reorder",
		})
	}

	out, err := inv.OutOfStockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("out of stock count: %w", err)
	}
	if out > 0 {
		alerts = append(alerts, domain.Alert{
			Message:   fmt.Sprintf("%d item(s) out of stock", out),
			Severity:  domain.SeverityCritical,
			Timestamp: now,
			ActionTag: "restock_now",
		})
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	high, err := inv.HighUsageItemCount(ctx, midnight, HighUsageThreshold)
	if err != nil {
		return nil, fmt.Errorf("high usage count: %w", err)
	}
	if high > 0 {
		alerts = append(alerts, domain.Alert{
			Message:   fmt.Sprintf("%d item(s) with more than %d units used today", high, HighUsageThreshold),
			Severity:  domain.SeverityInfo,
			Timestamp: now,
			ActionTag: "review_usage",
		})
	}

	return alerts, nil
}

// AlertsPromptText renders alerts for the system instruction.
func AlertsPromptText(alerts []domain.Alert) string {
	if len(alerts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Active inventory alerts:")
	for _, a := range alerts {
		b.WriteString(fmt.Sprintf("\n- [%s] %s", a.Severity, a.Message))
	}
	return b.String()
}
