package handler

import (
    "errors"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/response"
    "github.com/iliyamo/travel-agency-booking/internal/settings"
)

// SettingsHandler reads and writes the admin-editable key/value settings.
type SettingsHandler struct {
    Settings *settings.Resolver
}

func NewSettingsHandler(s *settings.Resolver) *SettingsHandler {
    if s == nil {
        panic("nil resolver passed to NewSettingsHandler")
    }
    return &SettingsHandler{Settings: s}
}

type saveSettingsReq struct {
    Settings map[string]any `json:"settings" validate:"required"`
}

// GetSettings: GET /v1/admin/settings?reveal=true.
func (h *SettingsHandler) GetSettings(c echo.Context) error {
    reveal, _ := strconv.ParseBool(c.QueryParam("reveal"))
    ctx, cancel := reqCtx(c)
    defer cancel()
    m, err := h.Settings.Stored(ctx, reveal)
    if err != nil {
        return response.FromError(c, apperror.Internal("load settings", err))
    }
    return response.Success(c, m)
}

// SaveSettings: POST /v1/admin/settings.
func (h *SettingsHandler) SaveSettings(c echo.Context) error {
    var req saveSettingsReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    if len(req.Settings) == 0 {
        return response.BadRequest(c, "settings must not be empty")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    err := h.Settings.Save(ctx, req.Settings)
    if errors.Is(err, settings.ErrInvalidValue) {
        return response.BadRequest(c, err.Error())
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("save settings", err))
    }
    m, err := h.Settings.Stored(ctx, false)
    if err != nil {
        return response.FromError(c, apperror.Internal("load settings", err))
    }
    return response.Success(c, m)
}
