package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/apperror"
	"github.com/iliyamo/travel-agency-booking/internal/metrics"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/payment"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
)

// HandleWebhook verifies a gateway callback and reconciles the booking it
// refers to.  A capture for a payment that was never confirmed by the client
// completes the booking the same way Confirm does.  Unknown events are
// acknowledged and ignored.
func (s *BookingService) HandleWebhook(ctx context.Context, payload []byte, header http.Header) error {
	parser, err := s.gateways.Webhook(ctx, header)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return apperror.Wrap(apperror.KindNotConfigured, "Webhook secret is not configured", err)
		}
		return apperror.Validation("Invalid webhook signature")
	}
	evt, err := parser.ParseWebhook(payload, header)
	if err != nil {
		metrics.Payments.WithLabelValues(parser.Name(), "invalid_signature").Inc()
		log.Warn().Err(err).Str("provider", parser.Name()).Msg("webhook rejected")
		return apperror.Validation("Invalid webhook signature")
	}

	l := log.With().Str("provider", parser.Name()).Str("event", evt.Raw).
		Str("order_id", evt.OrderID).Str("payment_id", evt.PaymentID).Logger()

	switch evt.Kind {
	case payment.EventCaptured:
		return s.webhookCaptured(ctx, parser.Name(), evt)
	case payment.EventFailed:
		if evt.OrderID == "" {
			return nil
		}
		n, err := s.bookings.MarkPaymentFailedByOrder(ctx, evt.OrderID)
		if err != nil {
			return apperror.Internal("mark payment failed", err)
		}
		metrics.Payments.WithLabelValues(parser.Name(), "failed").Inc()
		l.Info().Int64("bookings", n).Msg("payment failed")
	default:
		l.Debug().Msg("webhook event ignored")
	}
	return nil
}

func (s *BookingService) webhookCaptured(ctx context.Context, provider string, evt *payment.Event) error {
	if evt.PaymentID != "" {
		p, err := s.payments.GetByProviderPaymentID(ctx, evt.PaymentID)
		if err == nil {
			log.Debug().Uint64("booking_id", p.BookingID).Str("payment_id", evt.PaymentID).Msg("capture already recorded")
			return nil
		}
		if !errors.Is(err, repository.ErrPaymentNotFound) {
			return apperror.Internal("load payment", err)
		}
	}
	if evt.OrderID == "" {
		return nil
	}

	var bookingID uint64
	err := s.complete(ctx, func(ctx context.Context, tx *sql.Tx) (*model.Booking, error) {
		b, err := s.bookings.FindByGatewayOrderTx(ctx, tx, evt.OrderID)
		if b != nil {
			bookingID = b.ID
		}
		return b, err
	}, &model.Payment{
		Provider:          provider,
		ProviderPaymentID: firstNonEmpty(evt.PaymentID, evt.OrderID),
		Amount:            evt.Amount,
		Currency:          strings.ToUpper(evt.Currency),
		Status:            "succeeded",
	})
	switch {
	case errors.Is(err, errAlreadyPaid):
		return nil
	case errors.Is(err, errBookingCancelled), errors.Is(err, errAmountMismatch):
		metrics.Payments.WithLabelValues(provider, "needs_review").Inc()
		log.Error().Err(err).Str("order_id", evt.OrderID).Str("payment_id", evt.PaymentID).
			Int64("amount", evt.Amount).Msg("captured payment not applied; reconcile by hand")
		return nil
	case apperror.Is(err, apperror.KindNotFound):
		log.Warn().Str("order_id", evt.OrderID).Msg("webhook capture for unknown order")
		return nil
	case err != nil:
		return err
	}

	metrics.Payments.WithLabelValues(provider, "succeeded").Inc()
	log.Info().Uint64("booking_id", bookingID).Str("provider", provider).Msg("payment completed by webhook")
	if d, err := s.detail(ctx, bookingID); err == nil {
		s.notifier.BookingPaid(ctx, d)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
