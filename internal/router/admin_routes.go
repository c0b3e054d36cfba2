package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-agency-booking/internal/handler"
	"github.com/iliyamo/travel-agency-booking/internal/middleware"
	"github.com/iliyamo/travel-agency-booking/internal/model"
)

// AdminHandlers groups the back-office endpoints.
type AdminHandlers struct {
	Dashboard *handler.AdminHandler
	Tours     *handler.AdminTourHandler
	Bookings  *handler.AdminBookingHandler
	Reviews   *handler.ReviewHandler
	Contact   *handler.ContactHandler
	Content   *handler.ContentHandler
	Settings  *handler.SettingsHandler
	Uploads   *handler.UploadHandler
}

// RegisterAdmin registers /v1/admin.  Every route requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/dashboard", h.Dashboard.Dashboard)
	g.GET("/users", h.Dashboard.ListUsers)

	g.GET("/tours", h.Tours.ListTours)
	g.POST("/tours", h.Tours.CreateTour)
	g.GET("/tours/:id", h.Tours.GetTour)
	g.PUT("/tours/:id", h.Tours.UpdateTour)
	g.DELETE("/tours/:id", h.Tours.DeleteTour)

	g.GET("/bookings", h.Bookings.ListBookings)
	g.GET("/bookings/:id", h.Bookings.GetBooking)
	g.PATCH("/bookings/:id", h.Bookings.UpdateBooking)
	g.DELETE("/bookings/:id", h.Bookings.DeleteBooking)

	g.GET("/reviews", h.Reviews.AdminListReviews)
	g.PATCH("/reviews/:id", h.Reviews.AdminModerateReview)
	g.DELETE("/reviews/:id", h.Reviews.AdminDeleteReview)

	g.GET("/contact", h.Contact.AdminList)
	g.PATCH("/contact/:id", h.Contact.AdminUpdateStatus)
	g.DELETE("/contact/:id", h.Contact.AdminDelete)

	g.POST("/content", h.Content.Upsert)

	g.GET("/settings", h.Settings.GetSettings)
	g.POST("/settings", h.Settings.SaveSettings)

	g.POST("/uploads", h.Uploads.Upload)
	// Public ids contain the folder, e.g. travel-agency/abc123.
	g.DELETE("/uploads/*", h.Uploads.Delete)
}
