package handler

import (
    "context"
    "io"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/response"
    "github.com/iliyamo/travel-agency-booking/internal/service"
)

// gatewayTimeout covers handlers that make outbound gateway calls on top of
// database work.
const gatewayTimeout = 20 * time.Second

// maxWebhookBody caps the raw webhook payload read into memory.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
    Bookings *service.BookingService
}

func NewPaymentHandler(s *service.BookingService) *PaymentHandler {
    if s == nil {
        panic("nil service passed to NewPaymentHandler")
    }
    return &PaymentHandler{Bookings: s}
}

type createIntentReq struct {
    BookingID uint64 `json:"booking_id" validate:"required"`
}

// paymentData mirrors what the Razorpay checkout widget hands back.
type paymentData struct {
    RazorpayPaymentID string `json:"razorpay_payment_id"`
    RazorpayOrderID   string `json:"razorpay_order_id"`
    RazorpaySignature string `json:"razorpay_signature"`
}

type confirmReq struct {
    BookingID   uint64       `json:"booking_id" validate:"required"`
    OrderID     string       `json:"order_id"`
    PaymentID   string       `json:"payment_id"`
    Signature   string       `json:"signature"`
    PaymentData *paymentData `json:"payment_data"`
}

// input folds the widget fields over the generic ones.
func (r confirmReq) input() service.ConfirmInput {
    in := service.ConfirmInput{BookingID: r.BookingID, OrderID: r.OrderID, PaymentID: r.PaymentID, Signature: r.Signature}
    if d := r.PaymentData; d != nil {
        if d.RazorpayOrderID != "" {
            in.OrderID = d.RazorpayOrderID
        }
        if d.RazorpayPaymentID != "" {
            in.PaymentID = d.RazorpayPaymentID
        }
        if d.RazorpaySignature != "" {
            in.Signature = d.RazorpaySignature
        }
    }
    return in
}

// CreateIntent: POST /v1/payments/create-intent.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    var req createIntentReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), gatewayTimeout)
    defer cancel()
    order, err := h.Bookings.CreateIntent(ctx, uid, req.BookingID)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, order)
}

// Confirm: POST /v1/payments/confirm.
func (h *PaymentHandler) Confirm(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    var req confirmReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    in := req.input()
    if strings.TrimSpace(in.PaymentID) == "" && strings.TrimSpace(in.OrderID) == "" {
        return response.BadRequest(c, "Payment details are required")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), gatewayTimeout)
    defer cancel()
    d, err := h.Bookings.Confirm(ctx, uid, in)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, echo.Map{"booking": d, "message": "Payment confirmed"})
}

// Webhook: POST /v1/payments/webhook.  The raw body is needed for the
// signature check, so it is read before any binding.
func (h *PaymentHandler) Webhook(c echo.Context) error {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
    if err != nil {
        return response.BadRequest(c, "Unable to read body")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Bookings.HandleWebhook(ctx, body, c.Request().Header); err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, echo.Map{"received": true})
}
