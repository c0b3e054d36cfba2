package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-agency-booking/internal/handler"
	"github.com/iliyamo/travel-agency-booking/internal/middleware"
	"github.com/iliyamo/travel-agency-booking/internal/model"
)

// CustomerHandlers groups the endpoints of a signed-in traveller.
type CustomerHandlers struct {
	Profile  *handler.ProfileHandler
	Bookings *handler.BookingHandler
	Payment  *handler.PaymentHandler
	Reviews  *handler.ReviewHandler
}

// RegisterCustomer registers endpoints for any authenticated user.  Admins
// may use them too; ownership is enforced by the booking service.
func RegisterCustomer(e *echo.Echo, h CustomerHandlers, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.GET("/profile", h.Profile.GetProfile)
	g.PUT("/profile", h.Profile.UpdateProfile)

	g.POST("/bookings", h.Bookings.CreateBooking)
	g.GET("/bookings", h.Bookings.ListBookings)
	g.GET("/bookings/:id", h.Bookings.GetBooking)
	g.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)

	g.POST("/payments/create-intent", h.Payment.CreateIntent)
	g.POST("/payments/confirm", h.Payment.Confirm)

	g.POST("/reviews", h.Reviews.CreateReview)
}
