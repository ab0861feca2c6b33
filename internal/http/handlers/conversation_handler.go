// README: Conversation and message endpoints; replies are produced asynchronously and pushed over /ws.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wayfarer/internal/http/middleware"
	"wayfarer/internal/modules/conversation"
	"wayfarer/internal/service/turns"
)

type Conversations interface {
	Create(ctx context.Context, cmd conversation.CreateCommand) (*conversation.Conversation, error)
	Get(ctx context.Context, id uuid.UUID, owner string) (*conversation.Conversation, error)
	List(ctx context.Context, conversationID uuid.UUID) ([]conversation.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID, owner string) error
	ClearHistory(ctx context.Context, conversationID uuid.UUID) (int64, error)
}

type Turns interface {
	Submit(ctx context.Context, cmd turns.SubmitCommand) (*conversation.Message, error)
}

type ConversationHandler struct {
	conversations Conversations
	turns         Turns
}

func NewConversationHandler(conversations Conversations, t Turns) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, turns: t}
}

type createConversationReq struct {
	Title string `json:"title"`
}

type postMessageReq struct {
	Content string `json:"content"`
}

// Create handles POST /api/conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	conv, err := h.conversations.Create(c.Request.Context(), conversation.CreateCommand{
		OwnerID: middleware.CallerUID(c),
		Title:   req.Title,
	})
	if err != nil {
		writeConversationError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, conv)
}

// ListMessages handles GET /api/conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	id, ok := h.owned(c)
	if !ok {
		return
	}
	msgs, err := h.conversations.List(c.Request.Context(), id)
	if err != nil {
		writeConversationError(c, err)
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	writeJSON(c, http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage handles POST /api/conversations/:id/messages. It answers 202
// with the stored user message; the assistant reply arrives over /ws.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	id, ok := h.owned(c)
	if !ok {
		return
	}
	var req postMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(c, http.StatusBadRequest, "missing content")
		return
	}
	msg, err := h.turns.Submit(c.Request.Context(), turns.SubmitCommand{
		ConversationID: id,
		OwnerID:        middleware.CallerUID(c),
		Content:        req.Content,
	})
	if err != nil {
		writeConversationError(c, err)
		return
	}
	writeJSON(c, http.StatusAccepted, msg)
}

// ClearHistory handles DELETE /api/conversations/:id/messages.
func (h *ConversationHandler) ClearHistory(c *gin.Context) {
	id, ok := h.owned(c)
	if !ok {
		return
	}
	n, err := h.conversations.ClearHistory(c.Request.Context(), id)
	if err != nil {
		writeConversationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"deleted": n})
}

// DeleteMessage handles DELETE /api/messages/:id.
func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.conversations.DeleteMessage(c.Request.Context(), id, middleware.CallerUID(c)); err != nil {
		writeConversationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// owned resolves :id and checks the caller owns the conversation.
func (h *ConversationHandler) owned(c *gin.Context) (uuid.UUID, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return uuid.Nil, false
	}
	if _, err := h.conversations.Get(c.Request.Context(), id, middleware.CallerUID(c)); err != nil {
		writeConversationError(c, err)
		return uuid.Nil, false
	}
	return id, true
}
