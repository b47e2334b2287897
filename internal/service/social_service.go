package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aminshahid573/authapi/internal/config"
	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// SocialAccountRepository defines the behavior SocialService needs to
// persist provider links.
type SocialAccountRepository interface {
	GetByProviderUID(ctx context.Context, provider domain.Provider, uid string) (*domain.SocialAccount, error)
	Create(ctx context.Context, acct *domain.SocialAccount) error
	TouchLogin(ctx context.Context, id uuid.UUID, extraData []byte) error
}

// TokenIssuer mints a token pair for an authenticated user.
type TokenIssuer interface {
	IssueTokens(ctx context.Context, user *domain.User) (*domain.LoginResponse, error)
}

// GoogleUser is the subset of Google's OpenID userinfo document we use.
type GoogleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	IDToken     string `json:"id_token"`
}

type googleErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// SocialService signs users in with a Google access token or
// authorization code.
type SocialService struct {
	httpClient *resty.Client
	cfg        config.GoogleConfig
	userRepo   UserRepository
	socialRepo SocialAccountRepository
	tokens     TokenIssuer
	logger     *slog.Logger
}

func NewSocialService(
	cfg config.GoogleConfig,
	userRepo UserRepository,
	socialRepo SocialAccountRepository,
	tokens TokenIssuer,
	logger *slog.Logger,
) *SocialService {
	return &SocialService{
		httpClient: resty.New().
			SetTimeout(time.Duration(cfg.Timeout) * time.Second).
			SetHeader("Accept", "application/json"),
		cfg:        cfg,
		userRepo:   userRepo,
		socialRepo: socialRepo,
		tokens:     tokens,
		logger:     logger,
	}
}

func (s *SocialService) GoogleLogin(ctx context.Context, req domain.SocialLoginRequest) (*domain.LoginResponse, error) {
	accessToken := strings.TrimSpace(req.AccessToken)
	if accessToken == "" {
		if strings.TrimSpace(req.Code) == "" {
			return nil, domain.ErrValidationFailed.WithDetails(map[string]string{
				"non_field_errors": "Incorrect input. access_token or code is required.",
			})
		}
		token, err := s.exchangeCode(ctx, strings.TrimSpace(req.Code))
		if err != nil {
			return nil, err
		}
		accessToken = token
	}

	profile, raw, err := s.fetchUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.resolveUser(ctx, profile, raw)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return nil, domain.ErrEmailNotVerified.WithDetails(map[string]string{
			"email":  user.Email,
			"action": "verify_email",
		})
	}

	return s.tokens.IssueTokens(ctx, user)
}

func (s *SocialService) exchangeCode(ctx context.Context, code string) (string, error) {
	var result googleTokenResponse
	var apiErr googleErrorResponse

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"code":          code,
			"client_id":     s.cfg.ClientID,
			"client_secret": s.cfg.ClientSecret,
			"redirect_uri":  s.cfg.RedirectURI,
			"grant_type":    "authorization_code",
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post(s.cfg.TokenURL)
	if err != nil {
		s.logger.Error("Google token exchange request failed", "error", err)
		return "", domain.ErrExternalAPI.WithError(err)
	}

	if resp.IsError() || result.AccessToken == "" {
		s.logger.Warn("Google rejected authorization code",
			"status", resp.StatusCode(),
			"error", apiErr.Error,
		)
		return "", domain.ErrSocialAuthFailed.WithDetails(map[string]string{
			"code": "invalid or expired authorization code",
		})
	}

	return result.AccessToken, nil
}

func (s *SocialService) fetchUserInfo(ctx context.Context, accessToken string) (*GoogleUser, []byte, error) {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Get(s.cfg.UserInfoURL)
	if err != nil {
		s.logger.Error("Google userinfo request failed", "error", err)
		return nil, nil, domain.ErrExternalAPI.WithError(err)
	}

	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return nil, nil, domain.ErrSocialAuthFailed.WithDetails(map[string]string{
			"access_token": "invalid or expired access token",
		})
	}
	if resp.IsError() {
		return nil, nil, domain.ErrExternalAPI.WithError(fmt.Errorf("userinfo status %d", resp.StatusCode()))
	}

	var profile GoogleUser
	if err := json.Unmarshal(resp.Body(), &profile); err != nil {
		return nil, nil, domain.ErrExternalAPI.WithError(fmt.Errorf("decode userinfo: %w", err))
	}
	if profile.Sub == "" || profile.Email == "" {
		return nil, nil, domain.ErrSocialAuthFailed.WithDetails(map[string]string{
			"access_token": "userinfo is missing subject or email",
		})
	}

	return &profile, resp.Body(), nil
}

func (s *SocialService) resolveUser(ctx context.Context, profile *GoogleUser, raw []byte) (*domain.User, error) {
	acct, err := s.socialRepo.GetByProviderUID(ctx, domain.ProviderGoogle, profile.Sub)
	switch {
	case err == nil:
		if err := s.socialRepo.TouchLogin(ctx, acct.ID, raw); err != nil {
			s.logger.Warn("Failed to update social login time", "error", err, "account_id", acct.ID)
		}
		return s.userRepo.GetByID(ctx, acct.UserID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		// Both sides must have proven ownership of the address. An
		// unconfirmed local account may carry a password chosen by someone
		// else.
		if !profile.EmailVerified || !user.EmailVerified {
			return nil, domain.ErrSocialAuthFailed.WithDetails(map[string]string{
				"email": "User is already registered with this e-mail address.",
			})
		}
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = s.createUser(ctx, profile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	link := &domain.SocialAccount{
		UserID:    user.ID,
		Provider:  domain.ProviderGoogle,
		UID:       profile.Sub,
		Email:     profile.Email,
		ExtraData: raw,
	}
	if err := s.socialRepo.Create(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("Social account linked", "user_id", user.ID, "provider", domain.ProviderGoogle)
	return user, nil
}

func (s *SocialService) createUser(ctx context.Context, profile *GoogleUser) (*domain.User, error) {
	name := profile.Name
	if name == "" {
		name = strings.TrimSpace(profile.GivenName + " " + profile.FamilyName)
	}

	user := &domain.User{
		Email:         profile.Email,
		Name:          name,
		EmailVerified: profile.EmailVerified,
	}
	if profile.EmailVerified {
		now := time.Now()
		user.EmailVerifiedAt = &now
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
