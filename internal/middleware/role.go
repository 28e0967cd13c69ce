package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nithish2321/EntraceEase/internal/utils"
)

// RequireRole aborts with 403 unless the role stored by JWTAuth is one of
// roles.  COLLEGE and TEST_CENTER callers must also carry a scope id.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			if !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			if role != utils.RoleAdmin && ScopeID(c) == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "token has no scope"})
			}
			return next(c)
		}
	}
}
