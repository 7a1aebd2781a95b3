package domain

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Reply sources
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// ConversationMessage is one turn in a user's conversation history.
// Immutable once appended to the session store.
type ConversationMessage struct {
	ID        string            `json:"id,omitempty"`
	Role      string            `json:"role"` // user, assistant, system
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ChatRequest is the request to send a chat message
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatReply is the response from a chat message. Source tells the caller
// whether the reply came from the generative service or the rule-based
// responder; business-level failures surface in Error, never as an HTTP error.
type ChatReply struct {
	Reply      string   `json:"reply"`
	Source     string   `json:"source"` // ai, fallback
	Error      string   `json:"error,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Alert severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is an on-demand inventory condition notice. Computed per request,
// never stored.
type Alert struct {
	Message   string    `json:"message"`
	Severity  string    `json:"severity"` // info, warning, critical
	Timestamp time.Time `json:"timestamp"`
	ActionTag string    `json:"action_tag"`
}
