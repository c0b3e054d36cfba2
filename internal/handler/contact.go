package handler

import (
    "context"
    "errors"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/metrics"
    "github.com/iliyamo/travel-agency-booking/internal/model"
    "github.com/iliyamo/travel-agency-booking/internal/recaptcha"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
)

type ContactNotifier interface {
    ContactReceived(ctx context.Context, m *model.ContactMessage)
}

// ContactHandler serves the contact form, its admin inbox and the
// reCAPTCHA helper endpoints.
type ContactHandler struct {
    Messages  *repository.ContactRepo
    Recaptcha *recaptcha.Verifier
    Notifier  ContactNotifier
}

func NewContactHandler(m *repository.ContactRepo, v *recaptcha.Verifier, n ContactNotifier) *ContactHandler {
    if m == nil || v == nil || n == nil {
        panic("nil dependency passed to NewContactHandler")
    }
    return &ContactHandler{Messages: m, Recaptcha: v, Notifier: n}
}

type contactReq struct {
    Name           string `json:"name" validate:"required,max=100"`
    Email          string `json:"email" validate:"required,email"`
    Message        string `json:"message" validate:"required,min=10,max=5000"`
    RecaptchaToken string `json:"recaptcha_token"`
}

type contactStatusReq struct {
    Status string `json:"status" validate:"required,oneof=NEW READ ARCHIVED"`
}

type recaptchaReq struct {
    Token string `json:"token" validate:"required"`
}

// Submit: POST /v1/contact.  A token is checked only when both the token
// and a secret key exist; siteverify outages do not block the form.
func (h *ContactHandler) Submit(c echo.Context) error {
    var req contactReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if token := strings.TrimSpace(req.RecaptchaToken); token != "" && h.Recaptcha.Configured(ctx) {
        res, err := h.Recaptcha.Verify(ctx, token, c.RealIP())
        switch {
        case err != nil:
            metrics.IntegrationFailed("recaptcha")
            log.Warn().Err(err).Msg("recaptcha verification unavailable; accepting contact message")
        case !res.Human():
            return response.BadRequest(c, "reCAPTCHA verification failed")
        }
    }

    m, err := h.Messages.Create(ctx, strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), strings.TrimSpace(req.Message))
    if err != nil {
        return response.FromError(c, apperror.Internal("store contact message", err))
    }
    h.Notifier.ContactReceived(context.WithoutCancel(ctx), m)
    return response.Created(c, echo.Map{"id": m.ID, "message": "Thank you for contacting us"})
}

// RecaptchaConfig: GET /v1/recaptcha/config.
func (h *ContactHandler) RecaptchaConfig(c echo.Context) error {
    return response.Success(c, echo.Map{"site_key": h.Recaptcha.SiteKey(c.Request().Context())})
}

// RecaptchaVerify: POST /v1/recaptcha/verify.
func (h *ContactHandler) RecaptchaVerify(c echo.Context) error {
    var req recaptchaReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    res, err := h.Recaptcha.Verify(ctx, req.Token, c.RealIP())
    if errors.Is(err, recaptcha.ErrNotConfigured) {
        return response.FromError(c, apperror.NotConfigured("reCAPTCHA is not configured"))
    }
    if err != nil {
        metrics.IntegrationFailed("recaptcha")
        return response.FromError(c, apperror.Integration("reCAPTCHA verification failed", err))
    }
    return response.Success(c, echo.Map{"success": res.Success, "score": res.Score, "action": res.Action})
}

// AdminList: GET /v1/admin/contact?status=.
func (h *ContactHandler) AdminList(c echo.Context) error {
    status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
    if status != "" && !model.ValidMessageStatus(status) {
        return response.BadRequest(c, "Invalid status")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Messages.List(ctx, status)
    if err != nil {
        return response.FromError(c, apperror.Internal("list contact messages", err))
    }
    return response.Success(c, list)
}

// AdminUpdateStatus: PATCH /v1/admin/contact/:id.
func (h *ContactHandler) AdminUpdateStatus(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    var req contactStatusReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    m, err := h.Messages.UpdateStatus(ctx, id, req.Status)
    if errors.Is(err, repository.ErrMessageNotFound) {
        return response.NotFound(c, "Message not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("update contact message", err))
    }
    return response.Success(c, m)
}

// AdminDelete: DELETE /v1/admin/contact/:id.
func (h *ContactHandler) AdminDelete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    err = h.Messages.Delete(ctx, id)
    if errors.Is(err, repository.ErrMessageNotFound) {
        return response.NotFound(c, "Message not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("delete contact message", err))
    }
    return response.Success(c, echo.Map{"message": "Message deleted"})
}
