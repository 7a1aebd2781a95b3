package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/liliang-cn/askstock/internal/domain"
)

// intentKeywords is the fixed scoring table. Order is the tie-break order:
// when two categories score equally, the earlier entry wins, so
// classification is deterministic.
var intentKeywords = []struct {
	intent   domain.Intent
	keywords []string
}{
	{domain.IntentCheckStock, []string{"stock", "how many", "how much", "quantity", "available", "in store"}},
	{domain.IntentDeductItems, []string{"deduct", "use", "take", "remove", "used up"}},
	{domain.IntentAddStock, []string{"add", "receive", "restock", "replenish", "delivery"}},
	{domain.IntentLowStockAlert, []string{"low stock", "running low", "reorder", "shortage", "running out"}},
	{domain.IntentHealthCheck, []string{"health", "status", "ping", "alive"}},
	{domain.IntentAuth, []string{"login", "auth", "token", "register", "password"}},
	{domain.IntentBulkOperations, []string{"bulk", "multiple", "batch", "several items"}},
	{domain.IntentUsageReport, []string{"usage", "report", "consumed", "consumption"}},
	{domain.IntentUserManagement, []string{"user", "role", "permission", "account"}},
	{domain.IntentSystemStatus, []string{"system", "uptime", "version", "database"}},
}

// Extraction patterns run against the original (not lowercased) text so
// values like reasons keep their casing.
var (
	checkStockPattern = regexp.MustCompile(`(?i)(?:stock of|how many|how much|check)\s+([\w\s\-]+)`)

	deductQtyPattern  = regexp.MustCompile(`(?i)(?:deduct|use|take|remove)\s+(\d+)`)
	deductItemPattern = regexp.MustCompile(`(?i)(\d+)\s+(?:from\s+|of\s+)?([\w\s\-]+)`)
	reasonPattern     = regexp.MustCompile(`(?i)(?:because|for|reason)\s+(.+)$`)

	addStockPattern = regexp.MustCompile(`(?i)(?:add|receive|restock)\s+(\d+)`)

	// Clause starters that terminate an item name capture.
	itemNameStopPattern = regexp.MustCompile(`(?i)\s+(?:because|for|reason)\b.*$`)
)

// Classify maps free text to an intent with extracted entities and a
// confidence in [0,1]. Pure function, no I/O.
func Classify(text string) domain.IntentClassification {
	lower := strings.ToLower(text)
	entities := make(map[string]any)

	// Keyword scoring: fraction of a category's keywords present.
	intent := domain.IntentGeneralHelp
	best := 0.0
	for _, cat := range intentKeywords {
		hits := 0
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		score := float64(hits) / float64(len(cat.keywords))
		if score > best {
			best = score
			intent = cat.intent
		}
	}

	// Intent-specific entity extraction. The switch is exhaustive over the
	// intent set; adding an intent without deciding its extraction here is
	// a compile-time hole a reviewer will see immediately.
	confidence := best
	switch intent {
	case domain.IntentCheckStock:
		if m := checkStockPattern.FindStringSubmatch(text); m != nil {
			entities[domain.EntityItemName] = cleanItemName(m[1])
			if confidence < 0.8 {
				confidence = 0.8
			}
		}
	case domain.IntentDeductItems:
		if m := deductQtyPattern.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				entities[domain.EntityQuantity] = n
			}
		}
		if m := deductItemPattern.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				entities[domain.EntityQuantity] = n
			}
			entities[domain.EntityItemName] = cleanItemName(m[2])
			confidence = 0.9
		}
		if m := reasonPattern.FindStringSubmatch(text); m != nil {
			entities[domain.EntityReason] = strings.TrimSpace(m[1])
		}
	case domain.IntentAddStock:
		if m := addStockPattern.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				entities[domain.EntityQuantity] = n
			}
			if confidence < 0.8 {
				confidence = 0.8
			}
		}
	case domain.IntentLowStockAlert, domain.IntentHealthCheck, domain.IntentAuth,
		domain.IntentBulkOperations, domain.IntentUsageReport,
		domain.IntentUserManagement, domain.IntentSystemStatus,
		domain.IntentGeneralHelp:
		// no entities for these
	}

	if confidence < 0.5 {
		confidence = 0.5
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.IntentClassification{
		Intent:     intent,
		Entities:   entities,
		Confidence: confidence,
	}
}

// cleanItemName trims a raw capture down to the item name: cuts trailing
// reason clauses and normalizes whitespace and case.
func cleanItemName(raw string) string {
	name := itemNameStopPattern.ReplaceAllString(raw, "")
	name = strings.Join(strings.Fields(name), " ")
	return strings.ToLower(strings.TrimSpace(name))
}

// inventoryVocabulary gates enrichment: only messages that talk about the
// inventory at all are worth a datastore round trip.
var inventoryVocabulary = []string{
	"stock", "inventory", "item", "items", "supply", "supplies", "quantity", "reorder",
}

// MentionsInventory reports whether the text uses inventory vocabulary.
func MentionsInventory(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range inventoryVocabulary {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
