package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vnxcius/accounts-back/internal/database/model"
	"github.com/vnxcius/accounts-back/internal/metrics"
	"github.com/vnxcius/accounts-back/internal/token"
)

const (
	bearerTokenPrefix = "Bearer "
	userContextKey    = "user"
)

type ctxKey struct{}

// TokenVerifier checks an access token; token.Issuer.VerifyAccess fits.
type TokenVerifier func(tokenStr string) (*token.UserClaims, error)

// AccessGuard admits requests carrying a valid bearer access token. No
// token is 401; a bad or expired token is 403 and the client is expected
// to call the refresh endpoint and retry.
func AccessGuard(verify TokenVerifier, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, bearerTokenPrefix) {
			slog.Debug("No bearer authorization header found")
			m.AuthEvent(metrics.EventGuard, metrics.OutcomeRejected)
			abortWithError(c, http.StatusUnauthorized, "Access token not found")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerTokenPrefix))
		if tokenStr == "" {
			m.AuthEvent(metrics.EventGuard, metrics.OutcomeRejected)
			abortWithError(c, http.StatusUnauthorized, "Access token not found")
			return
		}

		claims, err := verify(tokenStr)
		if err != nil {
			slog.Info("Access token rejected", "error", err)
			m.AuthEvent(metrics.EventGuard, metrics.OutcomeRejected)
			abortWithError(c, http.StatusForbidden, "Invalid or expired access token")
			return
		}

		user := claims.User()
		c.Set(userContextKey, user)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, user))
		m.AuthEvent(metrics.EventGuard, metrics.OutcomeSuccess)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (model.SafeUser, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return model.SafeUser{}, false
	}
	user, ok := v.(model.SafeUser)
	return user, ok
}

func UserFromContext(ctx context.Context) (model.SafeUser, bool) {
	user, ok := ctx.Value(ctxKey{}).(model.SafeUser)
	return user, ok
}

// the envelope shape matches handlers.Response
func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  "Error",
		"message": msg,
	})
}
