package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system
type User struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	Name            string     `json:"name" db:"name"`
	EmailVerified   bool       `json:"email_verified" db:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty" db:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// HasUsablePassword is false for accounts created through social login.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}

// Social providers
type Provider string

const (
	ProviderGoogle Provider = "google"
)

// SocialAccount links a user to an external identity provider account
type SocialAccount struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Provider  Provider  `json:"provider" db:"provider"`
	UID       string    `json:"uid" db:"uid"`
	Email     string    `json:"email" db:"email"`
	ExtraData []byte    `json:"-" db:"extra_data"`
	LastLogin time.Time `json:"last_login" db:"last_login"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Request/Response DTOs
type RegisterRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

type RegisterResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Detail string    `json:"detail"`
}

type VerifyEmailRequest struct {
	Key string `json:"key"`
}

type ResendEmailRequest struct {
	Email string `json:"email"`
}

type ResendEmailResponse struct {
	Detail        string `json:"detail"`
	CooldownUntil *int64 `json:"cooldown_until,omitempty"` // unix timestamp
	RetryAfter    *int   `json:"retry_after,omitempty"`    // seconds
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type LoginResponse struct {
	TokenResponse
	User *UserProfile `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type PasswordChangeRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	UID          string `json:"uid"`
	Token        string `json:"token"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

type UpdateUserRequest struct {
	Name *string `json:"name,omitempty"`
}

type SocialLoginRequest struct {
	AccessToken string `json:"access_token,omitempty"`
	Code        string `json:"code,omitempty"`
}

// UserProfile is the public view of a User
type UserProfile struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func NewUserProfile(u *User) *UserProfile {
	return &UserProfile{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

type DetailResponse struct {
	Detail string `json:"detail"`
}

type ErrorResponse struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}
