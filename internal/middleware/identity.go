package middleware

import "github.com/labstack/echo/v4"

// ScopeID returns the college or test center id bound to the caller's
// token, or "" for unauthenticated and admin requests.
func ScopeID(c echo.Context) string {
	s, _ := c.Get(CtxScopeID).(string)
	return s
}

// Role returns the caller's role claim.
func Role(c echo.Context) string {
	s, _ := c.Get(CtxRole).(string)
	return s
}

// identity names the caller for rate limiting: the scope id when present,
// then the subject, else "anon".
func identity(c echo.Context) string {
	if s := ScopeID(c); s != "" {
		return s
	}
	if s, _ := c.Get(CtxUserID).(string); s != "" {
		return s
	}
	return "anon"
}
