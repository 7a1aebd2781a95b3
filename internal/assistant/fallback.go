package assistant

import (
	"fmt"
	"regexp"
	"strings"
)

// Stock lookups come in a few shapes; tried in order, first match wins.
var stockPatterns = []*regexp.Regexp{
	regexp.MustCompile(`stock of ([\w\s\-]+)`),
	regexp.MustCompile(`how (?:many|much) ([\w\s\-]+?)(?:\s+(?:do we have|are left|remain|is left).*)?$`),
	regexp.MustCompile(`check ([\w\s\-]+)`),
}

var deductPattern = regexp.MustCompile(`(?:deduct|use|take|remove) (\d+)(?: of| from)? ([\w\s\-]+)`)

// Fallback is the deterministic rule-based responder used whenever the
// generative service is unavailable or unusable. Total over any input and
// never returns an empty string.
func Fallback(text string) string {
	m := strings.ToLower(strings.TrimSpace(text))

	if strings.Contains(m, "health") || strings.Contains(m, "status") || strings.Contains(m, "ping") {
		return "Check health endpoints:\n• GET /healthz (basic)\n• GET /healthz/ready (readiness)\n• GET /healthz/live (liveness)"
	}

	for _, p := range stockPatterns {
		if match := p.FindStringSubmatch(m); match != nil {
			name := strings.TrimSpace(match[1])
			if name != "" {
				return fmt.Sprintf("To check stock for '%s': GET /items?search=%s. In the UI, use the search box.", name, name)
			}
		}
	}

	if strings.Contains(m, "deduct") || strings.Contains(m, "use") ||
		strings.Contains(m, "take") || strings.Contains(m, "remove") {
		if match := deductPattern.FindStringSubmatch(m); match != nil {
			amount := match[1]
			name := cleanItemName(match[2])
			return fmt.Sprintf("To deduct %s from '%s': call POST /items/{id}/deduct with body { amount: %s, reason: \"...\", user: \"...\" }.", amount, name, amount)
		}
		return "To deduct stock: call POST /items/{id}/deduct with body { amount, reason, user }. Give me an amount and an item, e.g. \"deduct 2 from syringes\"."
	}

	if strings.Contains(m, "low stock") || strings.Contains(m, "reorder") || strings.Contains(m, "shortage") {
		return "Low stock items are those at or below their reorder level. GET /items?lowStock=true lists them, lowest quantity first."
	}

	if strings.Contains(m, "login") || strings.Contains(m, "auth") ||
		strings.Contains(m, "token") || strings.Contains(m, "register") {
		return "Auth flow:\n• POST /auth/register → returns token\n• POST /auth/login → returns token\n• Use Authorization: Bearer <token>\n• GET /auth/me to verify."
	}

	if strings.Contains(m, "add") || strings.Contains(m, "restock") || strings.Contains(m, "replenish") {
		return "To add stock: POST /items to create an item, or PUT /items/{id} with the new quantity to restock an existing one."
	}

	if strings.Contains(m, "bulk") || strings.Contains(m, "multiple") || strings.Contains(m, "batch") {
		return "Bulk operations: POST /items/bulk accepts a list of items to create or update in one call."
	}

	return "I can help with inventory questions. Try:\n• \"health\"\n• \"stock of gauze pads\"\n• \"deduct 2 from syringes because ER\"."
}
