package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/liliang-cn/askstock/internal/domain"
)

func TestMemoryStoreHistoryBound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour, 10)

	for i := 0; i < 25; i++ {
		msg := domain.ConversationMessage{
			Role:    domain.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		}
		if err := s.AddMessage(ctx, "u1", msg); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	history, err := s.History(ctx, "u1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 10 {
		t.Fatalf("history length = %d, want 10", len(history))
	}
	// newest 10, original order
	for i, msg := range history {
		want := fmt.Sprintf("message %d", 15+i)
		if msg.Content != want {
			t.Fatalf("history[%d] = %q, want %q", i, msg.Content, want)
		}
	}
}

func TestMemoryStoreMissingUserIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour, 10)

	history, err := s.History(ctx, "nobody")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history = %v, want empty", history)
	}

	data, err := s.Data(ctx, "nobody")
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("data = %v, want empty", data)
	}
}

func TestMemoryStoreDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour, 10)

	if err := s.SetData(ctx, "u1", "last_search", "bandages"); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	data, err := s.Data(ctx, "u1")
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if data["last_search"] != "bandages" {
		t.Fatalf("last_search = %q, want bandages", data["last_search"])
	}

	// users never share state
	other, _ := s.Data(ctx, "u2")
	if len(other) != 0 {
		t.Fatalf("u2 sees u1's data: %v", other)
	}
}

func TestMemoryStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour, 10)

	s.AddMessage(ctx, "u1", domain.ConversationMessage{Role: domain.RoleUser, Content: "hi"})
	s.SetData(ctx, "u1", "k", "v")

	for i := 0; i < 2; i++ {
		if err := s.Clear(ctx, "u1"); err != nil {
			t.Fatalf("Clear #%d: %v", i+1, err)
		}
		history, _ := s.History(ctx, "u1")
		if len(history) != 0 {
			t.Fatalf("after Clear #%d history = %v, want empty", i+1, history)
		}
		data, _ := s.Data(ctx, "u1")
		if len(data) != 0 {
			t.Fatalf("after Clear #%d data = %v, want empty", i+1, data)
		}
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2*time.Hour, 10)

	current := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.AddMessage(ctx, "u1", domain.ConversationMessage{Role: domain.RoleUser, Content: "hi"})
	s.SetData(ctx, "u1", "k", "v")

	// activity inside the window slides the deadline
	current = current.Add(90 * time.Minute)
	if history, _ := s.History(ctx, "u1"); len(history) != 1 {
		t.Fatalf("record expired before TTL")
	}

	// the read refreshed the TTL; another 90 minutes is still inside it
	current = current.Add(90 * time.Minute)
	if history, _ := s.History(ctx, "u1"); len(history) != 1 {
		t.Fatalf("sliding expiry did not refresh on read")
	}

	// no activity past the window: the record is gone
	current = current.Add(3 * time.Hour)
	if history, _ := s.History(ctx, "u1"); len(history) != 0 {
		t.Fatalf("stale record survived TTL")
	}
	if data, _ := s.Data(ctx, "u1"); len(data) != 0 {
		t.Fatalf("stale session data survived TTL")
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour, 10)

	s.AddMessage(ctx, "u1", domain.ConversationMessage{Role: domain.RoleUser, Content: "original"})

	history, _ := s.History(ctx, "u1")
	history[0].Content = "mutated"

	again, _ := s.History(ctx, "u1")
	if again[0].Content != "original" {
		t.Fatalf("caller mutation leaked into the store")
	}
}
