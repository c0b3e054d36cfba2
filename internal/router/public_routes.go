package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-agency-booking/internal/handler"
)

// PublicHandlers groups the unauthenticated endpoints.
type PublicHandlers struct {
	Tours   *handler.PublicTourHandler
	Contact *handler.ContactHandler
	Content *handler.ContentHandler
	Chat    *handler.ChatHandler
	Payment *handler.PaymentHandler
}

// RegisterPublic registers guest endpoints.  Catalog reads go through the
// Redis response cache; form-like endpoints that reach third parties are rate
// limited.
func RegisterPublic(e *echo.Echo, h PublicHandlers, cache, limit echo.MiddlewareFunc) {
	tours := e.Group("/v1/tours", cache)
	tours.GET("", h.Tours.ListTours)
	tours.GET("/:slug", h.Tours.GetTour)
	tours.GET("/:slug/reviews", h.Tours.ListTourReviews)

	e.GET("/v1/content", h.Content.List)
	e.GET("/v1/content/:key", h.Content.Get)

	e.POST("/v1/contact", h.Contact.Submit, limit)
	e.GET("/v1/recaptcha/config", h.Contact.RecaptchaConfig)
	e.POST("/v1/recaptcha/verify", h.Contact.RecaptchaVerify, limit)

	e.GET("/v1/chat", h.Chat.Status)
	e.POST("/v1/chat", h.Chat.Chat, limit)

	// Gateways call the webhook; it is authenticated by signature, not JWT.
	e.POST("/v1/payments/webhook", h.Payment.Webhook)
}
