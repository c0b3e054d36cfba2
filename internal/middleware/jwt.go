package middleware // reusable HTTP middleware for the API

import (
    "strings" // bearer prefix handling

    "github.com/labstack/echo/v4" // Echo middleware signature

    "github.com/iliyamo/travel-agency-booking/internal/response" // error envelope
    "github.com/iliyamo/travel-agency-booking/internal/utils"    // access token parsing
)

// Context keys set by JWTAuth.
const (
    CtxUserID = "user_id"
    CtxRole   = "role"
)

// JWTAuth validates a Bearer access token and stores the caller's id
// (uint64) and role (string) in the context under CtxUserID and CtxRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // The header must read "Bearer <jwt>".
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return response.Unauthorized(c, "Missing bearer token")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            // Signature, expiry and the sub/role claims are all checked here.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return response.Unauthorized(c, "Invalid or expired token")
            }
            c.Set(CtxUserID, claims.UserID)
            c.Set(CtxRole, claims.Role)
            return next(c)
        }
    }
}

// OptionalJWT behaves like JWTAuth when a valid bearer token is present and
// lets the request through anonymously otherwise.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if strings.HasPrefix(auth, "Bearer ") {
                if claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))); err == nil {
                    c.Set(CtxUserID, claims.UserID)
                    c.Set(CtxRole, claims.Role)
                }
            }
            return next(c)
        }
    }
}
