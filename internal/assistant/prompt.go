package assistant

import (
	"fmt"
	"strings"

	"github.com/liliang-cn/askstock/internal/domain"
)

// Session data keys the prompt builder understands.
const (
	SessionKeyLastSearch  = "last_search"
	SessionKeyCurrentItem = "current_item"
)

const (
	historyTail       = 2
	historyTrimLength = 100
)

// PromptContext is the optional caller context folded into the system
// instruction.
type PromptContext struct {
	Roles       []string
	History     []domain.ConversationMessage
	SessionData map[string]string
}

func (p *PromptContext) hasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// BuildPrompt augments a base instruction with role-tier guidance, a short
// history tail and known session data. Pure and total: a nil context
// returns base unchanged.
func BuildPrompt(base string, pctx *PromptContext) string {
	if pctx == nil {
		return base
	}

	var b strings.Builder
	b.WriteString(base)

	// Role tier, highest first
	switch {
	case pctx.hasRole(domain.RoleNameAdmin):
		b.WriteString(" The user is an administrator with full access to inventory, users, and reports.")
	case pctx.hasRole(domain.RoleNameViewer):
		b.WriteString(" The user has view-only access; do not suggest actions that modify the inventory.")
	case pctx.hasRole(domain.RoleNameEditor):
		b.WriteString(" The user can modify inventory quantities but cannot manage users.")
	}

	if n := len(pctx.History); n > 0 {
		b.WriteString("\n\nRecent conversation:")
		start := n - historyTail
		if start < 0 {
			start = 0
		}
		for _, msg := range pctx.History[start:] {
			b.WriteString(fmt.Sprintf("\n- %s: %s", msg.Role, trimContent(msg.Content)))
		}
	}

	if v, ok := pctx.SessionData[SessionKeyLastSearch]; ok && v != "" {
		b.WriteString(fmt.Sprintf("\nThe user previously searched for: %s.", v))
	}
	if v, ok := pctx.SessionData[SessionKeyCurrentItem]; ok && v != "" {
		b.WriteString(fmt.Sprintf("\nThe user is currently viewing: %s.", v))
	}

	return b.String()
}

func trimContent(s string) string {
	r := []rune(s)
	if len(r) <= historyTrimLength {
		return s
	}
	return string(r[:historyTrimLength]) + "..."
}
