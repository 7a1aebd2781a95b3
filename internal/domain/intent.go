package domain

// Intent is the classified purpose of a user message.
type Intent string

// The closed set of intents the classifier can produce. Declaration order
// matters: it is the tie-break order of the keyword scorer.
const (
	IntentCheckStock     Intent = "check_stock"
	IntentDeductItems    Intent = "deduct_items"
	IntentAddStock       Intent = "add_stock"
	IntentLowStockAlert  Intent = "low_stock_alert"
	IntentHealthCheck    Intent = "health_check"
	IntentAuth           Intent = "auth"
	IntentBulkOperations Intent = "bulk_operations"
	IntentUsageReport    Intent = "usage_report"
	IntentUserManagement Intent = "user_management"
	IntentSystemStatus   Intent = "system_status"
	IntentGeneralHelp    Intent = "general_help"
)

// Entity keys extracted from free text.
const (
	EntityItemName = "item_name"
	EntityQuantity = "quantity"
	EntityReason   = "reason"
)

// IntentClassification is the classifier output for one message.
// Produced fresh per message, never persisted.
type IntentClassification struct {
	Intent     Intent         `json:"intent"`
	Entities   map[string]any `json:"entities"`
	Confidence float64        `json:"confidence"` // in [0,1]
}

// ItemName returns the extracted item_name entity, if any.
func (c IntentClassification) ItemName() (string, bool) {
	v, ok := c.Entities[EntityItemName]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Quantity returns the extracted quantity entity, if any.
func (c IntentClassification) Quantity() (int, bool) {
	v, ok := c.Entities[EntityQuantity]
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}
