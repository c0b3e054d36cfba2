package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/apperror"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
	"github.com/iliyamo/travel-agency-booking/internal/utils"
)

// ResetTokenTTL is how long an emailed reset link stays valid.
const ResetTokenTTL = time.Hour

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

type ResetTokenStore interface {
	ReplaceResetToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	GetResetToken(ctx context.Context, tokenHash string) (model.PasswordResetToken, error)
	DeleteResetToken(ctx context.Context, id uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type ResetNotifier interface {
	PasswordReset(ctx context.Context, u model.User, link string)
}

// AccountService handles the forgot/reset password flow.
type AccountService struct {
	users      UserStore
	tokens     ResetTokenStore
	notifier   ResetNotifier
	baseURL    string
	bcryptCost int
	now        clock
}

func NewAccountService(users UserStore, tokens ResetTokenStore, notifier ResetNotifier, baseURL string, bcryptCost int) *AccountService {
	if users == nil || tokens == nil || notifier == nil {
		panic("service: nil dependency for AccountService")
	}
	return &AccountService{
		users:      users,
		tokens:     tokens,
		notifier:   notifier,
		baseURL:    strings.TrimRight(baseURL, "/"),
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// ForgotPassword emails a reset link when the address belongs to an account.
// It reports success either way so callers cannot probe for accounts.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return apperror.Internal("load user", err)
	}
	raw, err := utils.RandomHex(32)
	if err != nil {
		return apperror.Internal("generate reset token", err)
	}
	exp := s.now().UTC().Add(ResetTokenTTL)
	if err := s.tokens.ReplaceResetToken(ctx, u.ID, utils.HashToken(raw), exp); err != nil {
		return apperror.Internal("store reset token", err)
	}
	s.notifier.PasswordReset(ctx, u, s.baseURL+"/reset-password/"+raw)
	log.Info().Uint64("user_id", u.ID).Msg("password reset requested")
	return nil
}

// ResetPassword redeems a reset token.  Expired tokens are deleted.  A
// successful reset also signs the user out everywhere.
func (s *AccountService) ResetPassword(ctx context.Context, rawToken, password string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return apperror.Validation("Reset token is required")
	}
	if len(password) < 6 {
		return apperror.Validation("Password must be at least 6 characters")
	}
	t, err := s.tokens.GetResetToken(ctx, utils.HashToken(rawToken))
	if errors.Is(err, repository.ErrTokenInvalid) {
		return apperror.Validation("Invalid or expired reset token")
	}
	if err != nil {
		return apperror.Internal("load reset token", err)
	}
	if t.Expired(s.now().UTC()) {
		_ = s.tokens.DeleteResetToken(ctx, t.ID)
		return apperror.Validation("Invalid or expired reset token")
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperror.Internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, t.UserID, hash); err != nil {
		return apperror.Internal("update password", err)
	}
	if err := s.tokens.DeleteResetToken(ctx, t.ID); err != nil {
		log.Error().Err(err).Uint64("user_id", t.UserID).Msg("delete reset token")
	}
	if err := s.tokens.RevokeAllForUser(ctx, t.UserID); err != nil {
		log.Error().Err(err).Uint64("user_id", t.UserID).Msg("revoke refresh tokens after reset")
	}
	log.Info().Uint64("user_id", t.UserID).Msg("password reset")
	return nil
}
