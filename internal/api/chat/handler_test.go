package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/askstock/internal/domain"
	"github.com/liliang-cn/askstock/internal/service"
	"github.com/liliang-cn/askstock/internal/session"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, systemPrompt string, history []domain.ConversationMessage, userMessage string) (string, error) {
	return "generated answer", nil
}

type emptyInventory struct{}

func (emptyInventory) FindByNameSubstring(ctx context.Context, pattern string) ([]domain.Item, error) {
	return nil, nil
}
func (emptyInventory) LowStockItems(ctx context.Context) ([]domain.Item, error) { return nil, nil }
func (emptyInventory) OutOfStockCount(ctx context.Context) (int, error)         { return 0, nil }
func (emptyInventory) TotalCount(ctx context.Context) (int, error)              { return 0, nil }
func (emptyInventory) TotalQuantity(ctx context.Context) (int, error)           { return 0, nil }
func (emptyInventory) HighUsageItemCount(ctx context.Context, since time.Time, threshold int) (int, error) {
	return 0, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	store := session.NewMemoryStore(time.Hour, 10)
	svc := service.NewChatService(store, emptyInventory{}, stubGenerator{}, zap.NewNop(), nil)
	handler := NewHandler(svc, nil)

	r := gin.New()
	group := r.Group("/api/chat")
	handler.RegisterRoutes(group)
	return r
}

func TestChatEndpoint(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"what's the stock of gauze"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var reply domain.ChatReply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Reply != "generated answer" || reply.Source != domain.SourceAI {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestChatEndpointRejectsMissingMessage(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestClearSessionEndpoint(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
