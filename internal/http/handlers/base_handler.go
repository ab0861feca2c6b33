// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wayfarer/internal/modules/conversation"
	"wayfarer/internal/service/turns"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// parseID reads a uuid path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func writeConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, conversation.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, turns.ErrClosed):
		writeError(c, http.StatusServiceUnavailable, "shutting down")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
