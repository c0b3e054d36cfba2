package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/travel-agency-booking/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/travel-agency-booking/internal/middleware" // JWT authentication, roles, cache and rate limiting
)

// RegisterRoutes registers operational endpoints that sit outside /v1.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", h.Health)
	// Prometheus scrape endpoint.
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the authentication routes.  Session-less
// operations live under /v1/auth and are rate limited by the caller's IP;
// /v1/auth/me needs an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout needs only the refresh token in the body.
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))

	// Top-level aliases kept for older clients.
	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
	e.POST("/v1/logout", a.Logout, limit)
}
