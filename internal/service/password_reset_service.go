package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aminshahid573/authapi/internal/cache"
	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/google/uuid"
)

const resetTokenBytes = 32

// RefreshRevoker invalidates outstanding refresh tokens for a user.
type RefreshRevoker interface {
	RevokeRefreshToken(ctx context.Context, userID uuid.UUID) error
}

// PasswordReset carries what the reset email needs.
type PasswordReset struct {
	User      *domain.User
	UID       string
	Token     string
	ExpiresAt time.Time
}

type resetRecord struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PasswordResetService struct {
	redis    TokenStore
	userRepo UserRepository
	revoker  RefreshRevoker
	ttl      time.Duration
	logger   *slog.Logger
}

func NewPasswordResetService(redis TokenStore, userRepo UserRepository, revoker RefreshRevoker, ttl time.Duration, logger *slog.Logger) *PasswordResetService {
	return &PasswordResetService{
		redis:    redis,
		userRepo: userRepo,
		revoker:  revoker,
		ttl:      ttl,
		logger:   logger,
	}
}

// Request creates a reset token for the account registered under email.
// Unknown addresses yield (nil, nil) so callers answer identically either
// way. A new request replaces any earlier token for the same user.
func (s *PasswordResetService) Request(ctx context.Context, email string) (*PasswordReset, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug("Password reset requested for unknown email")
			return nil, nil
		}
		return nil, err
	}

	token, err := generateRandomString(resetTokenBytes)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	record := resetRecord{
		Token:     token,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.redis.Set(ctx, resetKey(user.ID), &record, s.ttl); err != nil {
		return nil, domain.ErrRedisError.WithError(err)
	}

	s.logger.Info("Password reset requested", "user_id", user.ID)
	return &PasswordReset{
		User:      user,
		UID:       user.ID.String(),
		Token:     token,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// Confirm sets a new password when uid and token match a pending reset.
// The token is single use and all refresh tokens are revoked.
func (s *PasswordResetService) Confirm(ctx context.Context, req domain.PasswordResetConfirmRequest) error {
	userID, err := uuid.Parse(req.UID)
	if err != nil {
		return domain.ErrResetTokenInvalid.WithDetails(map[string]string{
			"uid": "Invalid value",
		})
	}

	var record resetRecord
	if err := s.redis.Get(ctx, resetKey(userID), &record); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return domain.ErrResetTokenInvalid.WithDetails(map[string]string{
				"token": "Invalid value",
			})
		}
		return domain.ErrRedisError.WithError(err)
	}

	if subtle.ConstantTimeCompare([]byte(record.Token), []byte(req.Token)) != 1 || time.Now().After(record.ExpiresAt) {
		return domain.ErrResetTokenInvalid.WithDetails(map[string]string{
			"token": "Invalid value",
		})
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return err
	}
	if !strings.EqualFold(user.Email, record.Email) {
		return domain.ErrResetTokenInvalid
	}

	hashedPassword, err := hashPassword(req.NewPassword1)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}

	if err := s.redis.Delete(ctx, resetKey(userID)); err != nil {
		s.logger.Warn("Failed to delete used reset token", "error", err, "user_id", userID)
	}
	if err := s.revoker.RevokeRefreshToken(ctx, userID); err != nil {
		s.logger.Warn("Failed to revoke refresh token after reset", "error", err, "user_id", userID)
	}

	s.logger.Info("Password reset completed", "user_id", userID)
	return nil
}

func resetKey(userID uuid.UUID) string {
	return fmt.Sprintf("password_reset:%s", userID)
}
