package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aminshahid573/authapi/internal/cache"
	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/google/uuid"
)

const (
	ConfirmationKeyBytes   = 32
	InitialCooldownSeconds = 60   // 1 minute
	MaxCooldownSeconds     = 3600 // 1 hour
)

// Confirmation is a pending email confirmation.
type Confirmation struct {
	Key       string    `json:"key"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmationService issues and consumes single-use email confirmation
// keys kept in Redis.
type ConfirmationService struct {
	redis    TokenStore
	userRepo UserRepository
	ttl      time.Duration
	logger   *slog.Logger
}

func NewConfirmationService(redis TokenStore, userRepo UserRepository, ttl time.Duration, logger *slog.Logger) *ConfirmationService {
	return &ConfirmationService{
		redis:    redis,
		userRepo: userRepo,
		ttl:      ttl,
		logger:   logger,
	}
}

// Issue creates a confirmation key for user. Repeated calls for the same
// address are spaced by an exponential cooldown: 60s * 2^(n-1), capped at
// one hour.
func (s *ConfirmationService) Issue(ctx context.Context, user *domain.User) (*Confirmation, error) {
	if user.EmailVerified {
		return nil, domain.ErrEmailAlreadyVerified
	}

	email := strings.ToLower(user.Email)
	if err := s.checkCooldown(ctx, email); err != nil {
		return nil, err
	}

	key, err := generateRandomString(ConfirmationKeyBytes)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	now := time.Now()
	conf := &Confirmation{
		Key:       key,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.redis.Set(ctx, confirmationKey(key), conf, s.ttl); err != nil {
		return nil, domain.ErrRedisError.WithError(err)
	}

	s.startCooldown(ctx, email, now)

	s.logger.Debug("Confirmation key issued", "user_id", user.ID)
	return conf, nil
}

// Resend issues a new key for the account registered under email. It
// returns nil without error when there is nothing to send, so callers do
// not reveal whether the address exists.
func (s *ConfirmationService) Resend(ctx context.Context, email string) (*Confirmation, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if user.EmailVerified {
		return nil, nil, nil
	}

	conf, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return conf, user, nil
}

// Confirm consumes key and marks the owning user's email as verified.
func (s *ConfirmationService) Confirm(ctx context.Context, key string) (*domain.User, error) {
	if key == "" {
		return nil, domain.ErrConfirmationInvalid
	}

	var conf Confirmation
	if err := s.redis.Get(ctx, confirmationKey(key), &conf); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, domain.ErrConfirmationInvalid
		}
		return nil, domain.ErrRedisError.WithError(err)
	}

	if err := s.redis.Delete(ctx, confirmationKey(key)); err != nil {
		return nil, domain.ErrRedisError.WithError(err)
	}

	if time.Now().After(conf.ExpiresAt) {
		return nil, domain.ErrConfirmationExpired
	}

	user, err := s.userRepo.GetByID(ctx, conf.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrConfirmationInvalid
		}
		return nil, err
	}

	// The key is bound to the address it was sent to.
	if !strings.EqualFold(user.Email, conf.Email) {
		return nil, domain.ErrConfirmationInvalid
	}

	if !user.EmailVerified {
		if err := s.userRepo.VerifyEmail(ctx, user.ID); err != nil {
			return nil, err
		}
		now := time.Now()
		user.EmailVerified = true
		user.EmailVerifiedAt = &now
	}

	email := strings.ToLower(user.Email)
	s.redis.Delete(ctx, generationKey(email), generationCountKey(email))

	s.logger.Info("Email confirmed", "user_id", user.ID)
	return user, nil
}

func (s *ConfirmationService) checkCooldown(ctx context.Context, email string) error {
	exists, err := s.redis.Exists(ctx, generationKey(email))
	if err != nil || !exists {
		return nil
	}

	ttl, _ := s.redis.TTL(ctx, generationKey(email))
	if ttl <= 0 {
		ttl = InitialCooldownSeconds * time.Second
	}
	retryAfter := int(math.Ceil(ttl.Seconds()))
	cooldownUntil := time.Now().Add(ttl).Unix()

	// Requests during the cooldown still count toward the backoff.
	s.redis.Incr(ctx, generationCountKey(email))
	s.redis.Expire(ctx, generationCountKey(email), time.Hour)

	return domain.ErrResendCooldown.WithDetails(map[string]string{
		"retry_after":    fmt.Sprintf("%d", retryAfter),
		"cooldown_until": fmt.Sprintf("%d", cooldownUntil),
	})
}

func (s *ConfirmationService) startCooldown(ctx context.Context, email string, now time.Time) {
	count, err := s.redis.Incr(ctx, generationCountKey(email))
	if err != nil {
		s.logger.Warn("Failed to track confirmation resend count", "error", err)
		count = 1
	}
	s.redis.Expire(ctx, generationCountKey(email), time.Hour)

	cooldown := cooldownFor(count)
	if err := s.redis.Set(ctx, generationKey(email), now.Format(time.RFC3339), cooldown); err != nil {
		s.logger.Warn("Failed to start confirmation cooldown", "error", err)
	}
}

// cooldownFor returns 60s * 2^(count-1), capped at MaxCooldownSeconds.
func cooldownFor(count int64) time.Duration {
	if count < 1 {
		count = 1
	}
	seconds := float64(InitialCooldownSeconds) * math.Pow(2, float64(count-1))
	if seconds > MaxCooldownSeconds {
		seconds = MaxCooldownSeconds
	}
	return time.Duration(seconds) * time.Second
}

func confirmationKey(key string) string {
	return fmt.Sprintf("email_confirm:key:%s", key)
}

func generationKey(email string) string {
	return fmt.Sprintf("email_confirm:generation:%s", email)
}

func generationCountKey(email string) string {
	return fmt.Sprintf("email_confirm:generation:count:%s", email)
}
