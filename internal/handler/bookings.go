package handler

import (
    "context"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/response"
    "github.com/iliyamo/travel-agency-booking/internal/service"
)

// BookingHandler exposes the customer booking endpoints.
type BookingHandler struct {
    Bookings *service.BookingService
}

func NewBookingHandler(s *service.BookingService) *BookingHandler {
    if s == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: s}
}

type createBookingReq struct {
    TourID          uint64  `json:"tour_id" validate:"required"`
    StartDate       string  `json:"start_date" validate:"required"`
    EndDate         string  `json:"end_date" validate:"required"`
    Adults          int     `json:"adults" validate:"required,min=1"`
    Children        int     `json:"children" validate:"min=0"`
    SpecialRequests *string `json:"special_requests" validate:"omitempty,max=2000"`
}

// CreateBooking: POST /v1/bookings.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    var req createBookingReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    start, err := parseDate("start_date", req.StartDate)
    if err != nil {
        return response.FromError(c, err)
    }
    end, err := parseDate("end_date", req.EndDate)
    if err != nil {
        return response.FromError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    b, tour, err := h.Bookings.Create(ctx, uid, service.CreateBookingInput{
        TourID:          req.TourID,
        StartDate:       start,
        EndDate:         end,
        Adults:          req.Adults,
        Children:        req.Children,
        SpecialRequests: optString(req.SpecialRequests),
    })
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Created(c, echo.Map{
        "booking":        b,
        "max_group_size": tour.MaxGroupSize,
    })
}

// ListBookings: GET /v1/bookings, the caller's bookings newest first.
func (h *BookingHandler) ListBookings(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Bookings.ListForUser(ctx, uid)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, list)
}

// GetBooking: GET /v1/bookings/:id, owner only.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    d, err := h.Bookings.Get(ctx, uid, id)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, d)
}

// CancelBooking: POST /v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    // Refunds call the gateway; allow them more than the default budget.
    ctx, cancel := context.WithTimeout(c.Request().Context(), gatewayTimeout)
    defer cancel()
    res, err := h.Bookings.Cancel(ctx, uid, id)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, res)
}
