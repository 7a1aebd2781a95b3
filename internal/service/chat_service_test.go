package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/askstock/internal/assistant"
	"github.com/liliang-cn/askstock/internal/config"
	"github.com/liliang-cn/askstock/internal/domain"
	"github.com/liliang-cn/askstock/internal/session"
)

type fakeGenerator struct {
	content    string
	err        error
	lastPrompt string
	calls      int
}

func (g *fakeGenerator) Generate(ctx context.Context, systemPrompt string, history []domain.ConversationMessage, userMessage string) (string, error) {
	g.calls++
	g.lastPrompt = systemPrompt
	if g.err != nil {
		return "", g.err
	}
	return g.content, nil
}

type fakeInventory struct {
	lowStock []domain.Item
	panicOn  string
}

func (f *fakeInventory) FindByNameSubstring(ctx context.Context, pattern string) ([]domain.Item, error) {
	if f.panicOn == "find" {
		panic("inventory exploded")
	}
	return []domain.Item{{ID: 1, Name: pattern, Quantity: 7}}, nil
}

func (f *fakeInventory) LowStockItems(ctx context.Context) ([]domain.Item, error) {
	return f.lowStock, nil
}

func (f *fakeInventory) OutOfStockCount(ctx context.Context) (int, error) { return 0, nil }
func (f *fakeInventory) TotalCount(ctx context.Context) (int, error)      { return 4, nil }
func (f *fakeInventory) TotalQuantity(ctx context.Context) (int, error)   { return 40, nil }
func (f *fakeInventory) HighUsageItemCount(ctx context.Context, since time.Time, threshold int) (int, error) {
	return 0, nil
}

func newTestService(gen Generator, inv domain.Inventory) (*ChatService, session.Store) {
	store := session.NewMemoryStore(time.Hour, 10)
	return NewChatService(store, inv, gen, zap.NewNop(), nil), store
}

func TestChatAIPath(t *testing.T) {
	gen := &fakeGenerator{content: "You have 7 gauze pads."}
	svc, store := newTestService(gen, &fakeInventory{})
	caller := Caller{UserID: "u1", Roles: []string{domain.RoleNameAdmin}}

	reply := svc.Chat(context.Background(), caller, "what's the stock of gauze")

	if reply.Source != domain.SourceAI {
		t.Fatalf("source = %s, want ai", reply.Source)
	}
	if reply.Reply != "You have 7 gauze pads." {
		t.Fatalf("reply = %q", reply.Reply)
	}
	if reply.Error != "" {
		t.Fatalf("error = %q, want empty", reply.Error)
	}
	if reply.Confidence == nil || *reply.Confidence < 0.8 {
		t.Fatalf("confidence = %v, want >= 0.8", reply.Confidence)
	}

	history, _ := store.History(context.Background(), "u1")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want user + assistant", len(history))
	}
	if history[0].Role != domain.RoleUser || history[1].Role != domain.RoleAssistant {
		t.Fatalf("history roles = %s, %s", history[0].Role, history[1].Role)
	}
	if history[1].Metadata["intent"] != string(domain.IntentCheckStock) {
		t.Fatalf("assistant metadata intent = %q", history[1].Metadata["intent"])
	}
}

func TestChatFallbackWhenGeneratorFails(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream on fire")}
	svc, store := newTestService(gen, &fakeInventory{})

	reply := svc.Chat(context.Background(), Caller{UserID: "u1"}, "stock of gauze")

	if reply.Source != domain.SourceFallback {
		t.Fatalf("source = %s, want fallback", reply.Source)
	}
	if reply.Reply == "" {
		t.Fatalf("fallback reply is empty")
	}
	if !strings.Contains(reply.Error, "upstream on fire") {
		t.Fatalf("error = %q, want generator error surfaced", reply.Error)
	}

	// the failed turn is still part of the conversation
	history, _ := store.History(context.Background(), "u1")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[1].Metadata["source"] != domain.SourceFallback {
		t.Fatalf("assistant metadata source = %q", history[1].Metadata["source"])
	}
}

func TestChatNoAPIKeyNeverGenerates(t *testing.T) {
	// A real client with no key configured: the call must not be attempted
	// and every input still gets a non-empty reply.
	gen := assistant.NewClient(config.LLMConfig{BaseURL: "http://127.0.0.1:1", Model: "m"})
	svc, _ := newTestService(gen, &fakeInventory{})

	for _, msg := range []string{"", "stock of gauze", "ヘルプ"} {
		reply := svc.Chat(context.Background(), Caller{UserID: "u1"}, msg)
		if reply.Source != domain.SourceFallback {
			t.Fatalf("Chat(%q).Source = %s, want fallback", msg, reply.Source)
		}
		if reply.Reply == "" {
			t.Fatalf("Chat(%q) returned empty reply", msg)
		}
	}
}

func TestChatPersistsLastSearch(t *testing.T) {
	gen := &fakeGenerator{content: "ok"}
	svc, store := newTestService(gen, &fakeInventory{})

	svc.Chat(context.Background(), Caller{UserID: "u1"}, "what's the stock of gauze")

	data, _ := store.Data(context.Background(), "u1")
	if data[assistant.SessionKeyLastSearch] != "gauze" {
		t.Fatalf("last_search = %q, want gauze", data[assistant.SessionKeyLastSearch])
	}
}

func TestChatEnrichesPrompt(t *testing.T) {
	gen := &fakeGenerator{content: "ok"}
	svc, _ := newTestService(gen, &fakeInventory{})

	svc.Chat(context.Background(), Caller{UserID: "u1"}, "what's the stock of gauze")

	if !strings.Contains(gen.lastPrompt, `"quantity":7`) {
		t.Fatalf("prompt missing enrichment data: %q", gen.lastPrompt)
	}
}

func TestChatFoldsAlertsForLowStockIntent(t *testing.T) {
	gen := &fakeGenerator{content: "ok"}
	inv := &fakeInventory{lowStock: []domain.Item{{ID: 1, Name: "masks", Quantity: 1}}}
	svc, _ := newTestService(gen, inv)

	svc.Chat(context.Background(), Caller{UserID: "u1"}, "what is running low stock?")

	if !strings.Contains(gen.lastPrompt, "Active inventory alerts") {
		t.Fatalf("prompt missing alerts: %q", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "[warning]") {
		t.Fatalf("prompt missing low stock warning: %q", gen.lastPrompt)
	}
}

func TestChatRecoversFromPanic(t *testing.T) {
	gen := &fakeGenerator{content: "never used"}
	svc, _ := newTestService(gen, &fakeInventory{panicOn: "find"})

	reply := svc.Chat(context.Background(), Caller{UserID: "u1"}, "stock of gauze")

	if reply.Source != domain.SourceFallback {
		t.Fatalf("source = %s, want fallback after panic", reply.Source)
	}
	if reply.Reply == "" {
		t.Fatalf("reply is empty after panic")
	}
	if !strings.Contains(reply.Error, "internal error") {
		t.Fatalf("error = %q, want internal error marker", reply.Error)
	}
}

func TestClearSession(t *testing.T) {
	gen := &fakeGenerator{content: "ok"}
	svc, store := newTestService(gen, &fakeInventory{})
	ctx := context.Background()

	svc.Chat(ctx, Caller{UserID: "u1"}, "hello")
	if err := svc.ClearSession(ctx, "u1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}

	history, _ := store.History(ctx, "u1")
	if len(history) != 0 {
		t.Fatalf("history after clear = %v, want empty", history)
	}
}
