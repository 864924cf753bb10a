package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hadevx/backend/internal/auth"
	"github.com/hadevx/backend/pkg/ctxmanage"
	"github.com/hadevx/backend/pkg/logkey"
)

// Authentication verifies the bearer token, resolves the caller's user
// document and stashes both in the request context. The token rides on
// either the Authorization header or the session cookie.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			slog.Error("missing token", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
			return
		}

		claims, err := m.keys.ParseToken(tokenStr)
		if err != nil {
			slog.Error("token verification failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token failed"})
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), claims.Subject)
		if err != nil {
			slog.Error("token subject has no user", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		ctx = context.WithValue(ctx, auth.UserKey, user)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authorize wraps a handler so only callers holding the role reach it.
func (m *Mid) Authorize(next gin.HandlerFunc, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
			return
		}

		if !m.allowed(c, claims, role) {
			slog.Error("role not permitted", slog.String(logkey.TraceID, traceId), slog.String("Role", role))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized as admin"})
			return
		}
		next(c)
	}
}

func (m *Mid) allowed(c *gin.Context, claims auth.Claims, role string) bool {
	if claims.HasRole(role) {
		return true
	}
	// The admin flag on the user document is authoritative even when the
	// token predates a role grant.
	if role == auth.RoleAdmin {
		if user, err := CurrentUser(c); err == nil && user.IsAdmin {
			return true
		}
	}
	return false
}

func bearerToken(c *gin.Context) string {
	header := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("jwt"); err == nil {
		return cookie
	}
	return ""
}
