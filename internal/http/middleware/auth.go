// README: Firebase ID-token auth; without a verifier every caller is the anonymous owner.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/infra"
	"wayfarer/internal/modules/conversation"
)

const (
	callerUIDKey    = "caller_uid"
	callerClaimsKey = "caller_claims"
)

// Auth verifies "Authorization: Bearer <token>". Browsers cannot set headers on
// a WebSocket handshake, so an access_token query parameter is accepted too.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Set(callerUIDKey, conversation.AnonymousOwner)
			c.Next()
			return
		}

		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil || token == nil || token.UID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerUIDKey, token.UID)
		c.Set(callerClaimsKey, token.Claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(h, prefix) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(h, prefix))
	}
	return strings.TrimSpace(c.Query("access_token"))
}

// CallerUID returns the authenticated uid, or the anonymous owner.
func CallerUID(c *gin.Context) string {
	if v, ok := c.Get(callerUIDKey); ok {
		if uid, ok := v.(string); ok && uid != "" {
			return uid
		}
	}
	return conversation.AnonymousOwner
}

// CallerClaims returns the verified token claims, if any.
func CallerClaims(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(callerClaimsKey); ok {
		if claims, ok := v.(map[string]interface{}); ok {
			return claims
		}
	}
	return nil
}
