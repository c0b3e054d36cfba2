package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/apperror"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
)

type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
}

// PurchaseChecker answers whether a user has paid for a tour.
type PurchaseChecker interface {
	HasPaidBooking(ctx context.Context, userID, tourID uint64) (bool, error)
}

// ReviewService gates reviews on a paid booking.
type ReviewService struct {
	reviews   ReviewStore
	tours     TourStore
	purchases PurchaseChecker
}

func NewReviewService(reviews ReviewStore, tours TourStore, purchases PurchaseChecker) *ReviewService {
	if reviews == nil || tours == nil || purchases == nil {
		panic("service: nil dependency for ReviewService")
	}
	return &ReviewService{reviews: reviews, tours: tours, purchases: purchases}
}

// Create stores an unapproved review.  Only customers holding a PAID booking
// for the tour may review it, once.
func (s *ReviewService) Create(ctx context.Context, userID, tourID uint64, rating int, comment string) (*model.Review, error) {
	if _, err := s.tours.GetByID(ctx, tourID); err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return nil, apperror.NotFound("Tour not found")
		}
		return nil, apperror.Internal("load tour", err)
	}
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, apperror.Validation("Rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperror.Validation("Comment is required")
	}

	paid, err := s.purchases.HasPaidBooking(ctx, userID, tourID)
	if err != nil {
		return nil, apperror.Internal("check paid booking", err)
	}
	if !paid {
		return nil, apperror.Forbidden("You can only review tours you have booked and paid for")
	}

	rv := &model.Review{TourID: tourID, UserID: userID, Rating: rating, Comment: comment}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return nil, apperror.Conflict("You have already reviewed this tour")
		}
		return nil, apperror.Internal("create review", err)
	}
	log.Info().Uint64("review_id", rv.ID).Uint64("tour_id", tourID).Uint64("user_id", userID).Msg("review submitted")
	return rv, nil
}
