package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/apperror"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
)

// AdminGet returns any booking with its tour, customer and payment.
func (s *BookingService) AdminGet(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	return s.detail(ctx, id)
}

// AdminUpdate applies an admin edit.  Statuses may always change; dates,
// traveller counts, amount and requests only while the booking is
// PENDING/PENDING.
func (s *BookingService) AdminUpdate(ctx context.Context, id uint64, p repository.BookingPatch) (*model.BookingDetail, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, apperror.NotFound("Booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("load booking", err)
	}
	if p.HasDetails() && !b.DetailsEditable() {
		return nil, apperror.Validation("Booking details can only be changed while booking and payment are pending")
	}
	if p.BookingStatus != nil && !model.ValidBookingStatus(*p.BookingStatus) {
		return nil, apperror.Validation("Invalid booking status")
	}
	if p.PaymentStatus != nil && !model.ValidPaymentStatus(*p.PaymentStatus) {
		return nil, apperror.Validation("Invalid payment status")
	}
	if p.Adults != nil && *p.Adults < 1 {
		return nil, apperror.Validation("At least one adult is required")
	}
	if p.Children != nil && *p.Children < 0 {
		return nil, apperror.Validation("Children cannot be negative")
	}
	if p.TotalAmount != nil && *p.TotalAmount < 0 {
		return nil, apperror.Validation("Total amount cannot be negative")
	}
	start, end := b.StartDate, b.EndDate
	if p.StartDate != nil {
		start = *p.StartDate
	}
	if p.EndDate != nil {
		end = *p.EndDate
	}
	if end.Before(start) {
		return nil, apperror.Validation("End date must be on or after start date")
	}

	if err := s.bookings.ApplyPatch(ctx, id, p); err != nil {
		return nil, apperror.Internal("update booking", err)
	}
	log.Info().Uint64("booking_id", id).Msg("booking updated by admin")
	return s.detail(ctx, id)
}

// AdminDelete removes a booking that is still PENDING/PENDING.
func (s *BookingService) AdminDelete(ctx context.Context, id uint64) error {
	err := s.bookings.DeletePending(ctx, id)
	switch {
	case errors.Is(err, repository.ErrBookingNotFound):
		return apperror.NotFound("Booking not found")
	case errors.Is(err, repository.ErrConflict):
		return apperror.Validation("Only pending bookings can be deleted")
	case err != nil:
		return apperror.Internal("delete booking", err)
	}
	log.Info().Uint64("booking_id", id).Msg("booking deleted by admin")
	return nil
}
