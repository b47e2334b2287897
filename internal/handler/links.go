package handler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aminshahid573/authapi/internal/urls"
)

// Links builds the absolute URLs placed in e-mails and redirects.
type Links struct {
	BaseURL     string
	FrontendURL string
}

func NewLinks(baseURL, frontendURL string) Links {
	return Links{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		FrontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// ConfirmationURL reverses the account_confirm_email route of the table
// serving ctx.
func (l Links) ConfirmationURL(ctx context.Context, key string) (string, error) {
	path, err := urls.ReverseContext(ctx, "account_confirm_email", map[string]string{"key": key})
	if err != nil {
		return "", fmt.Errorf("confirmation url: %w", err)
	}
	return l.BaseURL + path, nil
}

// PasswordResetURL points at the client's reset form, or at the API origin
// when no client is configured.
func (l Links) PasswordResetURL(uid, token string) string {
	origin := l.FrontendURL
	if origin == "" {
		origin = l.BaseURL
	}
	return fmt.Sprintf("%s/auth/password-reset-confirm/%s/%s", origin, url.PathEscape(uid), url.PathEscape(token))
}

// LoginRedirect is where browsers land after confirming an address. It is
// empty when no client is configured.
func (l Links) LoginRedirect() string {
	if l.FrontendURL == "" {
		return ""
	}
	return l.FrontendURL + "/auth/login?verified=1"
}
