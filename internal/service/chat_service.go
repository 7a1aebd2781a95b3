package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liliang-cn/askstock/internal/assistant"
	"github.com/liliang-cn/askstock/internal/domain"
	"github.com/liliang-cn/askstock/internal/observability"
	"github.com/liliang-cn/askstock/internal/session"
)

const basePrompt = "You are an inventory assistant for a medical supply tracking system. " +
	"Answer concisely and only about the inventory. When inventory data is provided, " +
	"use it verbatim and do not invent quantities."

// Generator produces a reply from the assembled prompt, or an error when
// the generative service cannot be used.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []domain.ConversationMessage, userMessage string) (string, error)
}

// Caller identifies who is chatting.
type Caller struct {
	UserID string
	Roles  []string
}

// ChatService orchestrates one chat turn: classify, enrich, build the
// prompt, generate or fall back, persist the turn. Chat never returns an
// error; every failure mode resolves to a valid reply.
type ChatService struct {
	store   session.Store
	inv     domain.Inventory
	gen     Generator
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewChatService creates a new chat service
func NewChatService(
	store session.Store,
	inv domain.Inventory,
	gen Generator,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *ChatService {
	return &ChatService{
		store:   store,
		inv:     inv,
		gen:     gen,
		logger:  logger,
		metrics: metrics,
	}
}

// Chat handles one message from a caller and always produces a reply.
func (s *ChatService) Chat(ctx context.Context, caller Caller, message string) (reply *domain.ChatReply) {
	start := time.Now()

	cls := assistant.Classify(message)

	// Nothing past classification may take the turn down: a panic in the
	// pipeline becomes a fallback reply, not a 500.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("chat turn panicked",
				zap.String("user_id", caller.UserID),
				zap.Any("panic", r),
			)
			reply = &domain.ChatReply{
				Reply:  assistant.Fallback(message),
				Source: domain.SourceFallback,
				Error:  fmt.Sprintf("internal error: %v", r),
			}
		}
		if s.metrics != nil {
			s.metrics.Replies.WithLabelValues(reply.Source, string(cls.Intent)).Inc()
			s.metrics.TurnDuration.Observe(time.Since(start).Seconds())
		}
	}()

	history, err := s.store.History(ctx, caller.UserID)
	if err != nil {
		s.logger.Warn("session history unavailable", zap.String("user_id", caller.UserID), zap.Error(err))
		history = nil
	}
	sessionData, err := s.store.Data(ctx, caller.UserID)
	if err != nil {
		s.logger.Warn("session data unavailable", zap.String("user_id", caller.UserID), zap.Error(err))
		sessionData = map[string]string{}
	}

	instruction := basePrompt

	// Enrichment failures never abort the turn; the prompt just goes out
	// without live data.
	if assistant.ShouldEnrich(message, cls.Intent) {
		enr, err := assistant.Enrich(ctx, s.inv, message, cls)
		if err != nil {
			s.logger.Warn("enrichment failed", zap.String("user_id", caller.UserID), zap.Error(err))
			if s.metrics != nil {
				s.metrics.EnrichmentFailures.Inc()
			}
		} else {
			instruction += "\n\n" + enr.PromptText()
		}
	}

	if cls.Intent == domain.IntentLowStockAlert {
		alerts, err := assistant.ComputeAlerts(ctx, s.inv, time.Now().UTC())
		if err != nil {
			s.logger.Warn("alert computation failed", zap.String("user_id", caller.UserID), zap.Error(err))
		} else if len(alerts) > 0 {
			instruction += "\n\n" + assistant.AlertsPromptText(alerts)
		}
	}

	if name, ok := cls.ItemName(); ok {
		if err := s.store.SetData(ctx, caller.UserID, assistant.SessionKeyLastSearch, name); err != nil {
			s.logger.Warn("failed to persist last search", zap.String("user_id", caller.UserID), zap.Error(err))
		}
	}

	prompt := assistant.BuildPrompt(instruction, &assistant.PromptContext{
		Roles:       caller.Roles,
		History:     history,
		SessionData: sessionData,
	})

	confidence := cls.Confidence
	reply = &domain.ChatReply{Confidence: &confidence}

	content, err := s.gen.Generate(ctx, prompt, history, message)
	if err != nil {
		reply.Reply = assistant.Fallback(message)
		reply.Source = domain.SourceFallback
		reply.Error = err.Error()
		if s.metrics != nil {
			s.metrics.GenerationFailures.WithLabelValues(assistant.FailureReason(err)).Inc()
		}
		s.logger.Info("answered from fallback",
			zap.String("user_id", caller.UserID),
			zap.String("intent", string(cls.Intent)),
			zap.String("reason", assistant.FailureReason(err)),
		)
	} else {
		reply.Reply = content
		reply.Source = domain.SourceAI
	}

	s.persistTurn(ctx, caller.UserID, message, reply, cls.Intent)

	return reply
}

// ClearSession drops the caller's conversation history and session data.
func (s *ChatService) ClearSession(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}

func (s *ChatService) persistTurn(ctx context.Context, userID, message string, reply *domain.ChatReply, intent domain.Intent) {
	now := time.Now().UTC()

	userMsg := domain.ConversationMessage{
		ID:        uuid.New().String(),
		Role:      domain.RoleUser,
		Content:   message,
		Timestamp: now,
	}
	if err := s.store.AddMessage(ctx, userID, userMsg); err != nil {
		s.logger.Warn("failed to persist user message", zap.String("user_id", userID), zap.Error(err))
		return
	}

	assistantMsg := domain.ConversationMessage{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Content:   reply.Reply,
		Timestamp: now,
		Metadata: map[string]string{
			"intent": string(intent),
			"source": reply.Source,
		},
	}
	if err := s.store.AddMessage(ctx, userID, assistantMsg); err != nil {
		s.logger.Warn("failed to persist assistant message", zap.String("user_id", userID), zap.Error(err))
	}
}
