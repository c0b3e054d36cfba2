package middleware // middleware provides shared request processing for handlers

import (
    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/travel-agency-booking/internal/response"
)

// RequireRole aborts with 403 unless the role stored by JWTAuth is one of
// roles.  It must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A missing or non-string role counts as not allowed.
            role, ok := c.Get(CtxRole).(string)
            if !ok || !allowed[role] {
                return response.Forbidden(c, "Insufficient permissions")
            }
            return next(c)
        }
    }
}
