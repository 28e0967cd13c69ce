// Package middleware holds the echo middleware of the service: token
// authentication, role checks, the Redis response cache, the Redis token
// bucket and structured request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nithish2321/EntraceEase/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID  = "user_id"
	CtxRole    = "role"
	CtxScopeID = "scope_id"
)

// JWTAuth validates a Bearer access token and stores its subject, role and
// scope id in the echo context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, claims.Subject)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxScopeID, claims.ScopeID)
			return next(c)
		}
	}
}
