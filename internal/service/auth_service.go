package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aminshahid573/authapi/internal/cache"
	"github.com/aminshahid573/authapi/internal/config"
	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type AuthService struct {
	userRepo UserRepository
	redis    TokenStore
	jwtCfg   config.JWTConfig
	logger   *slog.Logger
}

func NewAuthService(userRepo UserRepository, redis TokenStore, jwtCfg config.JWTConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		redis:    redis,
		jwtCfg:   jwtCfg,
		logger:   logger,
	}
}

type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	TokenType string    `json:"token_type"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyExists.WithDetails(map[string]string{
			"email": "already registered",
		})
	}

	hashedPassword, err := hashPassword(req.Password1)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:         email,
		PasswordHash:  hashedPassword,
		Name:          strings.TrimSpace(req.Name),
		EmailVerified: false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.HasUsablePassword() {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, domain.ErrEmailNotVerified.WithDetails(map[string]string{
			"email":  user.Email,
			"action": "verify_email",
		})
	}

	return s.IssueTokens(ctx, user)
}

// IssueTokens mints a fresh token pair for user and records the refresh
// token as the only valid one for that user.
func (s *AuthService) IssueTokens(ctx context.Context, user *domain.User) (*domain.LoginResponse, error) {
	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResponse{
		TokenResponse: *tokens,
		User:          domain.NewUserProfile(user),
	}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResponse, error) {
	claims, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	var storedToken string
	if err := s.redis.Get(ctx, refreshKey(claims.UserID), &storedToken); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, domain.ErrInvalidToken
		}
		return nil, domain.ErrRedisError.WithError(err)
	}
	if storedToken != refreshToken {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	return s.issueTokenPair(ctx, user)
}

// Logout revokes the refresh token of userID and blacklists accessToken
// for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, accessToken string) error {
	if err := s.RevokeRefreshToken(ctx, userID); err != nil {
		return err
	}

	ttl := time.Duration(s.jwtCfg.AccessTokenDuration) * time.Minute
	if claims, err := s.parseToken(accessToken, tokenTypeAccess); err == nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistKey(accessToken), "1", ttl); err != nil {
		return domain.ErrRedisError.WithError(err)
	}

	s.logger.Info("User logged out", "user_id", userID)
	return nil
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, userID uuid.UUID) error {
	if err := s.redis.Delete(ctx, refreshKey(userID)); err != nil {
		return domain.ErrRedisError.WithError(err)
	}
	return nil
}

func (s *AuthService) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	exists, err := s.redis.Exists(ctx, blacklistKey(tokenString))
	if err != nil {
		return nil, domain.ErrRedisError.WithError(err)
	}
	if exists {
		return nil, domain.ErrInvalidToken
	}

	return s.parseToken(tokenString, tokenTypeAccess)
}

// VerifyToken accepts any unexpired access or refresh token issued by this
// service.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) error {
	_, accessErr := s.ValidateAccessToken(ctx, tokenString)
	if accessErr == nil {
		return nil
	}
	if _, err := s.parseToken(tokenString, tokenTypeRefresh); err == nil {
		return nil
	}
	return accessErr
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req domain.PasswordChangeRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.HasUsablePassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			return domain.ErrValidationFailed.WithDetails(map[string]string{
				"old_password": "Your old password was entered incorrectly.",
			})
		}
	}

	hashedPassword, err := hashPassword(req.NewPassword1)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}

	s.logger.Info("Password changed", "user_id", userID)
	return s.RevokeRefreshToken(ctx, userID)
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenResponse, error) {
	accessToken, err := s.generateToken(user, tokenTypeAccess)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	refreshToken, err := s.generateToken(user, tokenTypeRefresh)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	if err := s.redis.Set(ctx, refreshKey(user.ID), refreshToken, s.refreshDuration()); err != nil {
		return nil, domain.ErrRedisError.WithError(err)
	}

	return &domain.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwtCfg.AccessTokenDuration * 60,
	}, nil
}

func (s *AuthService) generateToken(user *domain.User, tokenType string) (string, error) {
	secret, lifetime := s.jwtCfg.AccessSecret, s.accessDuration()
	if tokenType == tokenTypeRefresh {
		secret, lifetime = s.jwtCfg.RefreshSecret, s.refreshDuration()
	}

	now := time.Now()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *AuthService) parseToken(tokenString, tokenType string) (*Claims, error) {
	secret := s.jwtCfg.AccessSecret
	if tokenType == tokenTypeRefresh {
		secret = s.jwtCfg.RefreshSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken.WithError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

func (s *AuthService) accessDuration() time.Duration {
	return time.Duration(s.jwtCfg.AccessTokenDuration) * time.Minute
}

func (s *AuthService) refreshDuration() time.Duration {
	return time.Duration(s.jwtCfg.RefreshTokenDuration) * time.Minute
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.ErrInternal.WithError(err)
	}
	return string(hashed), nil
}

func refreshKey(userID uuid.UUID) string {
	return fmt.Sprintf("refresh_token:%s", userID)
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}
