// README: HTTP router registration.
package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wayfarer/internal/http/handlers"
	"wayfarer/internal/http/middleware"
	"wayfarer/internal/infra"
	"wayfarer/internal/realtime"
)

type RouterDeps struct {
	Conversations handlers.Conversations
	Turns         handlers.Turns
	Hub           *realtime.Hub
	Verifier      infra.TokenVerifier
	Checks        map[string]handlers.Check
	Provider      handlers.ProviderStatus
	Log           *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log.Named("http")))

	health := handlers.NewHealthHandler(deps.Checks, deps.Provider)
	r.GET("/health", health.Health)

	authed := r.Group("/", middleware.Auth(deps.Verifier))

	conv := handlers.NewConversationHandler(deps.Conversations, deps.Turns)
	api := authed.Group("/api")
	api.POST("/conversations", conv.Create)
	api.GET("/conversations/:id/messages", conv.ListMessages)
	api.POST("/conversations/:id/messages", conv.PostMessage)
	api.DELETE("/conversations/:id/messages", conv.ClearHistory)
	api.DELETE("/messages/:id", conv.DeleteMessage)

	ws := handlers.NewWSHandler(deps.Hub, deps.Conversations, deps.Log)
	authed.GET("/ws", ws.Serve)

	return r
}
