package handler

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/model"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
    "github.com/iliyamo/travel-agency-booking/internal/service"
)

// AdminBookingHandler is the back-office view over every booking.
type AdminBookingHandler struct {
    Bookings *repository.BookingRepo
    Service  *service.BookingService
}

func NewAdminBookingHandler(r *repository.BookingRepo, s *service.BookingService) *AdminBookingHandler {
    if r == nil || s == nil {
        panic("nil dependency passed to NewAdminBookingHandler")
    }
    return &AdminBookingHandler{Bookings: r, Service: s}
}

type patchBookingReq struct {
    BookingStatus   *string `json:"booking_status"`
    PaymentStatus   *string `json:"payment_status"`
    StartDate       *string `json:"start_date"`
    EndDate         *string `json:"end_date"`
    Adults          *int    `json:"adults"`
    Children        *int    `json:"children"`
    TotalAmount     *int64  `json:"total_amount"`
    SpecialRequests *string `json:"special_requests" validate:"omitempty,max=2000"`
}

func upperPtr(s *string) *string {
    if s == nil {
        return nil
    }
    v := strings.ToUpper(strings.TrimSpace(*s))
    return &v
}

// ListBookings: GET /v1/admin/bookings?booking_status=&payment_status=&tour_id=&page=&limit=.
func (h *AdminBookingHandler) ListBookings(c echo.Context) error {
    page, limit := pageParams(c, 20, 100)
    q := repository.AdminBookingQuery{
        BookingStatus: strings.ToUpper(strings.TrimSpace(c.QueryParam("booking_status"))),
        PaymentStatus: strings.ToUpper(strings.TrimSpace(c.QueryParam("payment_status"))),
        TourID:        uint64(max(queryInt64(c, "tour_id"), 0)),
        Page:          page,
        Limit:         limit,
    }
    if q.BookingStatus != "" && !model.ValidBookingStatus(q.BookingStatus) {
        return response.BadRequest(c, "Invalid booking_status")
    }
    if q.PaymentStatus != "" && !model.ValidPaymentStatus(q.PaymentStatus) {
        return response.BadRequest(c, "Invalid payment_status")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, total, err := h.Bookings.ListAdmin(ctx, q)
    if err != nil {
        return response.FromError(c, apperror.Internal("list bookings", err))
    }
    return response.Paginated(c, list, response.NewPagination(page, limit, total))
}

// GetBooking: GET /v1/admin/bookings/:id with user, tour and payment.
func (h *AdminBookingHandler) GetBooking(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    d, err := h.Service.AdminGet(ctx, id)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, d)
}

// UpdateBooking: PATCH /v1/admin/bookings/:id.
func (h *AdminBookingHandler) UpdateBooking(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    var req patchBookingReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    p := repository.BookingPatch{
        BookingStatus:   upperPtr(req.BookingStatus),
        PaymentStatus:   upperPtr(req.PaymentStatus),
        Adults:          req.Adults,
        Children:        req.Children,
        TotalAmount:     req.TotalAmount,
        SpecialRequests: req.SpecialRequests,
    }
    if req.StartDate != nil {
        d, err := parseDate("start_date", *req.StartDate)
        if err != nil {
            return response.FromError(c, err)
        }
        p.StartDate = &d
    }
    if req.EndDate != nil {
        d, err := parseDate("end_date", *req.EndDate)
        if err != nil {
            return response.FromError(c, err)
        }
        p.EndDate = &d
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    d, err := h.Service.AdminUpdate(ctx, id, p)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, d)
}

// DeleteBooking: DELETE /v1/admin/bookings/:id, pending bookings only.
func (h *AdminBookingHandler) DeleteBooking(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Service.AdminDelete(ctx, id); err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, echo.Map{"message": "Booking deleted"})
}
