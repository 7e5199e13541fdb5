package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const actorContextKey = "actor_id"

// TokenVerifier resolves a bearer token to the acting user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware attaches the acting user to the request when a valid bearer
// token is present. Handlers decide whether a principal is required.
type AuthMiddleware struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	userID, err := m.Verifier.Verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(actorContextKey, userID)
	c.Next()
}

func requireActor(c *gin.Context) (string, bool) {
	actor := c.GetString(actorContextKey)
	if actor == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Code: "unauthorized", Message: "auth required"})
		return "", false
	}
	return actor, true
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
