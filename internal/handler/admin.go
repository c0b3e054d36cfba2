package handler

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
)

// recentBookings is the size of the dashboard's latest-bookings list.
const recentBookings = 5

// AdminHandler serves the dashboard and the customer list.
type AdminHandler struct {
    Users    *repository.UserRepo
    Bookings *repository.BookingRepo
    Tours    *repository.TourRepo
    now      func() time.Time
}

func NewAdminHandler(u *repository.UserRepo, b *repository.BookingRepo, t *repository.TourRepo) *AdminHandler {
    if u == nil || b == nil || t == nil {
        panic("nil repository passed to NewAdminHandler")
    }
    return &AdminHandler{Users: u, Bookings: b, Tours: t, now: time.Now}
}

// Dashboard: GET /v1/admin/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    now := h.now()
    today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
    stats, err := h.Bookings.Stats(ctx, today)
    if err != nil {
        return response.FromError(c, apperror.Internal("booking stats", err))
    }
    if stats.ActiveTours, err = h.Tours.CountPublished(ctx); err != nil {
        return response.FromError(c, apperror.Internal("count tours", err))
    }
    if stats.RecentBookings, err = h.Bookings.Recent(ctx, recentBookings); err != nil {
        return response.FromError(c, apperror.Internal("recent bookings", err))
    }
    return response.Success(c, stats)
}

// ListUsers: GET /v1/admin/users, customers with their booking counts.
func (h *AdminHandler) ListUsers(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    users, err := h.Users.ListCustomers(ctx)
    if err != nil {
        return response.FromError(c, apperror.Internal("list customers", err))
    }
    return response.Success(c, users)
}
