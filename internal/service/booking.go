package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/apperror"
	"github.com/iliyamo/travel-agency-booking/internal/metrics"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/payment"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
)

// BookingService owns the booking lifecycle: creation, payment order,
// confirmation, cancellation with refund, webhook completion and admin
// edits.
type BookingService struct {
	tx       TxBeginner
	bookings BookingStore
	payments PaymentStore
	tours    TourStore
	gateways Gateways
	notifier BookingNotifier
	currency CurrencySource
	now      clock
}

func NewBookingService(tx TxBeginner, bookings BookingStore, payments PaymentStore, tours TourStore,
	gateways Gateways, notifier BookingNotifier, currency CurrencySource) *BookingService {
	if tx == nil || bookings == nil || payments == nil || tours == nil || gateways == nil || notifier == nil || currency == nil {
		panic("service: nil dependency for BookingService")
	}
	return &BookingService{
		tx:       tx,
		bookings: bookings,
		payments: payments,
		tours:    tours,
		gateways: gateways,
		notifier: notifier,
		currency: currency,
		now:      time.Now,
	}
}

// CreateBookingInput is a validated booking request.
type CreateBookingInput struct {
	TourID          uint64
	StartDate       time.Time
	EndDate         time.Time
	Adults          int
	Children        int
	SpecialRequests *string
}

// Create prices and stores a PENDING booking for a published tour.  The
// tour's group size is returned so clients can hint; it is not enforced.
func (s *BookingService) Create(ctx context.Context, userID uint64, in CreateBookingInput) (*model.Booking, *model.Tour, error) {
	if in.Adults < 1 {
		return nil, nil, apperror.Validation("At least one adult is required")
	}
	if in.Children < 0 {
		return nil, nil, apperror.Validation("Children cannot be negative")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, nil, apperror.Validation("End date must be on or after start date")
	}

	tour, err := s.tours.GetPublishedByID(ctx, in.TourID)
	if errors.Is(err, repository.ErrTourNotFound) {
		return nil, nil, apperror.NotFound("Tour not found")
	}
	if err != nil {
		return nil, nil, apperror.Internal("load tour", err)
	}

	b := &model.Booking{
		UserID:          userID,
		TourID:          tour.ID,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Adults:          in.Adults,
		Children:        in.Children,
		TotalAmount:     model.CalculateTotal(tour.PricePerPerson(), in.Adults, in.Children),
		Currency:        s.currency.Currency(ctx),
		SpecialRequests: in.SpecialRequests,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, nil, apperror.Internal("create booking", err)
	}
	metrics.BookingsCreated.Inc()
	log.Info().Uint64("booking_id", b.ID).Uint64("tour_id", tour.ID).Uint64("user_id", userID).
		Int64("total", b.TotalAmount).Msg("booking created")
	return b, tour, nil
}

// owned loads a booking and hides other users' bookings as not found.
func (s *BookingService) owned(ctx context.Context, userID, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, apperror.NotFound("Booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("load booking", err)
	}
	if b.UserID != userID {
		return nil, apperror.NotFound("Booking not found")
	}
	return b, nil
}

// Get returns one of the caller's bookings with tour and payment details.
func (s *BookingService) Get(ctx context.Context, userID, id uint64) (*model.BookingDetail, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

func (s *BookingService) detail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	d, err := s.bookings.GetDetail(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, apperror.NotFound("Booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("load booking detail", err)
	}
	return d, nil
}

// ListForUser returns the caller's bookings newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	list, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("list bookings", err)
	}
	return list, nil
}

func gatewayError(err error) error {
	if errors.Is(err, payment.ErrNotConfigured) || errors.Is(err, payment.ErrUnknownProvider) {
		return apperror.Wrap(apperror.KindNotConfigured, "Payment gateway is not configured", err)
	}
	return apperror.Integration("Payment gateway error", err)
}

// CreateIntent opens a gateway order sized to the booking total and records
// its id on the booking.
func (s *BookingService) CreateIntent(ctx context.Context, userID, bookingID uint64) (*payment.Order, error) {
	b, err := s.owned(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus == model.PaymentPaid {
		return nil, apperror.Conflict("Booking is already paid")
	}
	if !b.Payable() {
		return nil, apperror.Validation("Booking cannot be paid in its current state")
	}

	gw, err := s.gateways.Active(ctx)
	if err != nil {
		return nil, gatewayError(err)
	}
	receipt := fmt.Sprintf("receipt_%d_%d", b.ID, s.now().Unix())
	order, err := gw.CreateOrder(ctx, b.TotalAmount, b.Currency, receipt)
	if err != nil {
		metrics.IntegrationFailed("payment")
		log.Error().Err(err).Uint64("booking_id", b.ID).Str("provider", gw.Name()).Msg("create payment order failed")
		return nil, apperror.Integration("Failed to create payment order", err)
	}
	if err := s.bookings.SetGatewayOrder(ctx, b.ID, order.ID); err != nil {
		return nil, apperror.Internal("store gateway order", err)
	}
	return order, nil
}

// ConfirmInput is the checkout result posted by the client.
type ConfirmInput struct {
	BookingID uint64
	OrderID   string
	PaymentID string
	Signature string
}

// Confirm verifies the gateway signature and, in one transaction, marks the
// booking PAID/CONFIRMED and records the payment.  Emails go out after
// commit and cannot undo it.
func (s *BookingService) Confirm(ctx context.Context, userID uint64, in ConfirmInput) (*model.BookingDetail, error) {
	b, err := s.owned(ctx, userID, in.BookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus == model.PaymentPaid {
		return nil, apperror.Conflict("Booking is already paid")
	}
	if b.BookingStatus == model.BookingCancelled {
		return nil, apperror.Validation("Booking is cancelled")
	}
	if b.GatewayOrderID == nil {
		return nil, apperror.Validation("No payment order has been created for this booking")
	}
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		orderID = *b.GatewayOrderID
	}
	if orderID != *b.GatewayOrderID {
		return nil, apperror.Validation("Payment order does not belong to this booking")
	}

	gw, err := s.gateways.Active(ctx)
	if err != nil {
		return nil, gatewayError(err)
	}
	v := payment.Verification{OrderID: orderID, PaymentID: strings.TrimSpace(in.PaymentID), Signature: strings.TrimSpace(in.Signature)}
	if err := gw.Verify(ctx, v); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			metrics.Payments.WithLabelValues(gw.Name(), "invalid_signature").Inc()
			log.Warn().Uint64("booking_id", b.ID).Str("provider", gw.Name()).Msg("payment signature rejected")
			return nil, apperror.Validation("Invalid payment signature")
		}
		metrics.IntegrationFailed("payment")
		return nil, apperror.Integration("Failed to verify payment", err)
	}
	paymentID := v.PaymentID
	if paymentID == "" {
		paymentID = orderID
	}

	amount, currency := b.TotalAmount, b.Currency
	if info, err := gw.FetchPayment(ctx, paymentID); err != nil {
		metrics.IntegrationFailed("payment")
		log.Warn().Err(err).Uint64("booking_id", b.ID).Str("payment_id", paymentID).
			Msg("fetch payment details failed; using booking amount")
	} else {
		if info.Amount > 0 {
			amount = info.Amount
		}
		if info.Currency != "" {
			currency = strings.ToUpper(info.Currency)
		}
	}

	err = s.complete(ctx, func(ctx context.Context, tx *sql.Tx) (*model.Booking, error) {
		return s.bookings.GetForUpdateTx(ctx, tx, b.ID)
	}, &model.Payment{
		Provider:          gw.Name(),
		ProviderPaymentID: paymentID,
		Amount:            amount,
		Currency:          currency,
		Status:            "succeeded",
	})
	switch {
	case errors.Is(err, errAlreadyPaid):
		return nil, apperror.Conflict("Booking is already paid")
	case errors.Is(err, errBookingCancelled):
		return nil, apperror.Validation("Booking is cancelled")
	case errors.Is(err, errAmountMismatch):
		metrics.Payments.WithLabelValues(gw.Name(), "amount_mismatch").Inc()
		log.Warn().Uint64("booking_id", b.ID).Str("payment_id", paymentID).Int64("amount", amount).
			Str("currency", currency).Int64("expected", b.TotalAmount).Msg("payment amount does not match booking")
		return nil, apperror.Validation("Payment amount does not match booking")
	case err != nil:
		return nil, err
	}
	metrics.Payments.WithLabelValues(gw.Name(), "succeeded").Inc()
	log.Info().Uint64("booking_id", b.ID).Str("provider", gw.Name()).Str("payment_id", paymentID).Msg("payment confirmed")

	d, err := s.detail(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.BookingPaid(ctx, d)
	return d, nil
}

var (
	errAlreadyPaid      = errors.New("booking already paid")
	errBookingCancelled = errors.New("booking cancelled")
	errAmountMismatch   = errors.New("payment amount does not match booking")
)

// complete locks the booking returned by lock, flips it to PAID/CONFIRMED
// and inserts p, all in one transaction.  The locked row must still be
// unpaid and not cancelled, and p must carry its exact total and currency;
// a zero p.Amount takes the booking's.
func (s *BookingService) complete(ctx context.Context, lock func(context.Context, *sql.Tx) (*model.Booking, error), p *model.Payment) error {
	tx, err := s.tx.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Internal("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	locked, err := lock(ctx, tx)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return apperror.NotFound("Booking not found")
		}
		return apperror.Internal("lock booking", err)
	}
	if locked.PaymentStatus == model.PaymentPaid {
		return errAlreadyPaid
	}
	if locked.BookingStatus == model.BookingCancelled {
		return errBookingCancelled
	}
	if p.Amount == 0 {
		p.Amount = locked.TotalAmount
	}
	if p.Currency == "" {
		p.Currency = locked.Currency
	}
	if p.Amount != locked.TotalAmount || !strings.EqualFold(p.Currency, locked.Currency) {
		return errAmountMismatch
	}
	if err := s.bookings.UpdateStatusTx(ctx, tx, locked.ID, model.BookingConfirmed, model.PaymentPaid); err != nil {
		return apperror.Internal("update booking status", err)
	}
	p.BookingID = locked.ID
	if err := s.payments.CreateTx(ctx, tx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return errAlreadyPaid
		}
		return apperror.Internal("record payment", err)
	}
	if err := tx.Commit(); err != nil {
		return apperror.Internal("commit payment", err)
	}
	committed = true
	return nil
}

// CancelResult carries the cancelled booking and the refund id, if any.
type CancelResult struct {
	Booking  *model.Booking `json:"booking"`
	RefundID *string        `json:"refund_id"`
}

// Cancel cancels the caller's booking.  The row stays locked from the read
// to the status write so a concurrent confirm cannot slip in between.  A
// PAID booking is refunded in full; when the refund fails the booking is
// still cancelled and keeps PAID so the payment can be reconciled by hand.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID uint64) (*CancelResult, error) {
	tx, err := s.tx.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Internal("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, apperror.NotFound("Booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("load booking", err)
	}
	if b.UserID != userID {
		return nil, apperror.Forbidden("You can only cancel your own bookings")
	}
	if b.BookingStatus == model.BookingCancelled {
		return nil, apperror.Validation("Booking is already cancelled")
	}

	paymentStatus := b.PaymentStatus
	var refundID *string
	if b.PaymentStatus == model.PaymentPaid {
		if id, ok := s.refund(ctx, b); ok {
			refundID = &id
			paymentStatus = model.PaymentRefunded
		}
	}

	if err := s.bookings.UpdateStatusTx(ctx, tx, b.ID, model.BookingCancelled, paymentStatus); err != nil {
		return nil, apperror.Internal("cancel booking", err)
	}
	if err := tx.Commit(); err != nil {
		if refundID != nil {
			log.Error().Err(err).Uint64("booking_id", b.ID).Str("refund_id", *refundID).Msg("refund issued but cancellation not committed")
		}
		return nil, apperror.Internal("commit cancellation", err)
	}
	committed = true
	log.Info().Uint64("booking_id", b.ID).Str("payment_status", paymentStatus).Msg("booking cancelled")

	d, err := s.detail(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	rid := ""
	if refundID != nil {
		rid = *refundID
	}
	s.notifier.BookingCancelled(ctx, d, rid)
	return &CancelResult{Booking: &d.Booking, RefundID: refundID}, nil
}

// refund attempts a full refund of b's recorded payment.  Failures are
// logged and reported as ok=false.
func (s *BookingService) refund(ctx context.Context, b *model.Booking) (string, bool) {
	p, err := s.payments.GetByBooking(ctx, b.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrPaymentNotFound) {
			log.Error().Err(err).Uint64("booking_id", b.ID).Msg("load payment for refund")
		}
		return "", false
	}
	if p.ProviderPaymentID == "" {
		return "", false
	}
	gw, err := s.gateways.For(ctx, p.Provider)
	if err != nil {
		log.Error().Err(err).Uint64("booking_id", b.ID).Str("provider", p.Provider).Msg("refund gateway unavailable")
		metrics.Payments.WithLabelValues(p.Provider, "refund_failed").Inc()
		return "", false
	}
	rf, err := gw.Refund(ctx, p.ProviderPaymentID, 0)
	if err != nil {
		log.Error().Err(err).Uint64("booking_id", b.ID).Str("payment_id", p.ProviderPaymentID).Msg("refund failed")
		metrics.IntegrationFailed("payment")
		metrics.Payments.WithLabelValues(p.Provider, "refund_failed").Inc()
		return "", false
	}
	if err := s.payments.UpdateStatus(ctx, p.ID, "refunded"); err != nil {
		log.Error().Err(err).Uint64("payment_id", p.ID).Msg("mark payment refunded")
	}
	metrics.Payments.WithLabelValues(p.Provider, "refunded").Inc()
	return rf.ID, true
}
