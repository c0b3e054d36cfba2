package handler

import (
    "errors"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
)

type ProfileHandler struct {
    Users    *repository.UserRepo
    Bookings *repository.BookingRepo
}

func NewProfileHandler(u *repository.UserRepo, b *repository.BookingRepo) *ProfileHandler {
    if u == nil || b == nil {
        panic("nil repository passed to NewProfileHandler")
    }
    return &ProfileHandler{Users: u, Bookings: b}
}

type updateProfileReq struct {
    Name  string  `json:"name" validate:"required,max=100"`
    Phone *string `json:"phone" validate:"omitempty,max=20"`
}

// GetProfile returns the caller with their bookings.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if errors.Is(err, repository.ErrUserNotFound) {
        return response.NotFound(c, "User not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("load user", err))
    }
    bookings, err := h.Bookings.ListByUser(ctx, uid)
    if err != nil {
        return response.FromError(c, apperror.Internal("load bookings", err))
    }
    return response.Success(c, echo.Map{
        "user":     toUserPart(u),
        "bookings": bookings,
    })
}

// UpdateProfile changes name and phone.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    var req updateProfileReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    err = h.Users.UpdateProfile(ctx, uid, req.Name, optString(req.Phone))
    if errors.Is(err, repository.ErrUserNotFound) {
        return response.NotFound(c, "User not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("update profile", err))
    }
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return response.FromError(c, apperror.Internal("load user", err))
    }
    return response.Success(c, toUserPart(u))
}
