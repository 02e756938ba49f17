package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rideshare/internal/auth"
	"rideshare/internal/domain"
	"rideshare/internal/handler"
)

// TokenParser resolves a bearer token to a principal.
type TokenParser interface {
	ParseToken(token string) (domain.Principal, error)
}

// Auth rejects requests without a valid bearer token and stores the resolved
// principal on the request context. Websocket upgrades may pass the token in
// the access_token query parameter since browsers cannot set headers on them.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			handler.AbortWithError(c, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		principal, err := parser.ParseToken(token)
		if err != nil {
			handler.AbortWithError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// RequireRole rejects principals that do not carry role. It must run after Auth.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFromContext(c.Request.Context())
		if !ok || principal.Role != role {
			handler.AbortWithError(c, http.StatusForbidden, "requires "+string(role))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if c.IsWebsocket() {
			if token := c.Query("access_token"); token != "" {
				return token, true
			}
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
