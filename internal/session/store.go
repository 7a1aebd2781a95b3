package session

import (
	"context"
	"time"

	"github.com/liliang-cn/askstock/internal/domain"
)

const (
	// DefaultTTL is the sliding inactivity window after which a session
	// record disappears.
	DefaultTTL = 2 * time.Hour
	// DefaultHistoryLimit caps the conversation history per user.
	DefaultHistoryLimit = 10
)

// Record is one user's session state: bounded conversation history plus
// arbitrary scratch data.
type Record struct {
	History []domain.ConversationMessage `json:"history"`
	Data    map[string]string            `json:"data"`
}

// Store holds per-user conversation state with a sliding TTL. A missing
// record is never an error: accessors return empty results and the record
// is created lazily on the first write. Implementations must serialize
// read-modify-write per user so racing appends cannot overshoot the
// history cap.
type Store interface {
	// History returns the user's conversation history, newest last.
	History(ctx context.Context, userID string) ([]domain.ConversationMessage, error)

	// AddMessage appends a message, then truncates the history to the
	// most recent entries (drop-oldest).
	AddMessage(ctx context.Context, userID string, msg domain.ConversationMessage) error

	// Data returns the user's session data map.
	Data(ctx context.Context, userID string) (map[string]string, error)

	// SetData stores one session data key.
	SetData(ctx context.Context, userID, key, value string) error

	// Clear removes the user's history and session data together.
	Clear(ctx context.Context, userID string) error
}
