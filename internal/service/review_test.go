package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-agency-booking/internal/apperror"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
)

type fakeReviews struct {
	existing map[[2]uint64]*model.Review
}

func (f *fakeReviews) Create(_ context.Context, rv *model.Review) error {
	k := [2]uint64{rv.TourID, rv.UserID}
	if _, ok := f.existing[k]; ok {
		return repository.ErrReviewExists
	}
	rv.ID = uint64(len(f.existing) + 1)
	f.existing[k] = rv
	return nil
}

type purchasesFunc func(userID, tourID uint64) bool

func (p purchasesFunc) HasPaidBooking(_ context.Context, userID, tourID uint64) (bool, error) {
	return p(userID, tourID), nil
}

func TestReviewCreate(t *testing.T) {
	reviews := &fakeReviews{existing: map[[2]uint64]*model.Review{}}
	tours := &fakeTours{tours: map[uint64]*model.Tour{1: {ID: 1}}}
	paid := purchasesFunc(func(userID, _ uint64) bool { return userID == 7 })
	svc := NewReviewService(reviews, tours, paid)
	ctx := context.Background()

	rv, err := svc.Create(ctx, 7, 1, 5, "  Loved it  ")
	require.NoError(t, err)
	assert.False(t, rv.IsApproved)
	assert.Equal(t, "Loved it", rv.Comment)

	_, err = svc.Create(ctx, 7, 1, 1, "Changed my mind")
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, "You have already reviewed this tour", err.(*apperror.Error).Message)
	assert.Equal(t, 5, reviews.existing[[2]uint64{1, 7}].Rating, "existing review unchanged")

	_, err = svc.Create(ctx, 8, 1, 4, "Never went")
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = svc.Create(ctx, 7, 99, 4, "Nice")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.Create(ctx, 7, 1, 6, "Nice")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	_, err = svc.Create(ctx, 7, 1, 3, "   ")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

type fakeUsers struct {
	users     map[string]model.User
	passwords map[uint64]string
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	f.passwords[id] = hash
	return nil
}

type fakeResetTokens struct {
	tokens  map[string]model.PasswordResetToken
	revoked []uint64
}

func (f *fakeResetTokens) ReplaceResetToken(_ context.Context, userID uint64, hash string, exp time.Time) error {
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	f.tokens[hash] = model.PasswordResetToken{ID: uint64(len(f.tokens) + 1), UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (f *fakeResetTokens) GetResetToken(_ context.Context, hash string) (model.PasswordResetToken, error) {
	t, ok := f.tokens[hash]
	if !ok {
		return t, repository.ErrTokenInvalid
	}
	return t, nil
}

func (f *fakeResetTokens) DeleteResetToken(_ context.Context, id uint64) error {
	for k, t := range f.tokens {
		if t.ID == id {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeResetTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.revoked = append(f.revoked, userID)
	return nil
}
