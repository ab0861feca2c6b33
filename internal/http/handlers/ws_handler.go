package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfarer/internal/http/middleware"
	"wayfarer/internal/realtime"
)

type WSHandler struct {
	hub           *realtime.Hub
	conversations Conversations
	log           *zap.Logger
}

func NewWSHandler(hub *realtime.Hub, conversations Conversations, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{hub: hub, conversations: conversations, log: log}
}

// Serve handles GET /ws. A client may only join rooms of conversations it owns.
func (h *WSHandler) Serve(c *gin.Context) {
	owner := middleware.CallerUID(c)
	authorize := func(ctx context.Context, room string) error {
		id, err := uuid.Parse(room)
		if err != nil {
			return err
		}
		_, err = h.conversations.Get(ctx, id, owner)
		return err
	}
	if err := h.hub.ServeWS(c.Writer, c.Request, authorize); err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
	}
}
