package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/askstock/internal/domain"
	"github.com/liliang-cn/askstock/internal/repository"
	"github.com/liliang-cn/askstock/internal/service"
)

// Handler handles chat API requests
type Handler struct {
	chatService *service.ChatService
	userRepo    *repository.UserRepository
}

// NewHandler creates a new chat handler
func NewHandler(chatService *service.ChatService, userRepo *repository.UserRepository) *Handler {
	return &Handler{chatService: chatService, userRepo: userRepo}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Chat)
	r.DELETE("/session", h.ClearSession)
}

// Chat handles a chat message. Always 200 with a ChatReply; only a body
// that fails to bind is a client error.
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := h.resolveCaller(c)
	reply := h.chatService.Chat(c.Request.Context(), caller, req.Message)

	c.JSON(http.StatusOK, reply)
}

// ClearSession drops the caller's conversation state
func (h *Handler) ClearSession(c *gin.Context) {
	caller := h.resolveCaller(c)
	if err := h.chatService.ClearSession(c.Request.Context(), caller.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// resolveCaller maps the authenticated request to a stable user identity
// and role set. Unknown callers chat anonymously, keyed by client IP, with
// no role-specific prompt guidance.
func (h *Handler) resolveCaller(c *gin.Context) service.Caller {
	email := c.GetHeader("X-User-Email")
	if email == "" {
		return service.Caller{UserID: c.ClientIP()}
	}

	caller := service.Caller{UserID: email}
	if h.userRepo != nil {
		if user, err := h.userRepo.GetByEmail(c.Request.Context(), email); err == nil && user != nil {
			caller.Roles = user.Roles
		}
	}
	return caller
}
