package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/google/uuid"
)

type SocialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) *SocialAccountRepository {
	return &SocialAccountRepository{db: db}
}

// GetByProviderUID returns the account linked to an external identity.
// A missing link yields domain.ErrNotFound.
func (r *SocialAccountRepository) GetByProviderUID(ctx context.Context, provider domain.Provider, uid string) (*domain.SocialAccount, error) {
	query := `
		SELECT id, user_id, provider, uid, email, extra_data, last_login, created_at
		FROM social_accounts
		WHERE provider = $1 AND uid = $2
	`

	var acct domain.SocialAccount
	err := r.db.QueryRowContext(ctx, query, provider, uid).Scan(
		&acct.ID, &acct.UserID, &acct.Provider, &acct.UID, &acct.Email,
		&acct.ExtraData, &acct.LastLogin, &acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrDatabaseError.WithError(err)
	}

	return &acct, nil
}

func (r *SocialAccountRepository) Create(ctx context.Context, acct *domain.SocialAccount) error {
	query := `
		INSERT INTO social_accounts (id, user_id, provider, uid, email, extra_data, last_login, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
	`

	acct.ID = uuid.New()
	acct.CreatedAt = time.Now()
	acct.LastLogin = acct.CreatedAt

	extra := string(acct.ExtraData)
	if extra == "" {
		extra = "{}"
	}

	_, err := r.db.ExecContext(ctx, query,
		acct.ID, acct.UserID, acct.Provider, acct.UID, acct.Email,
		extra, acct.LastLogin, acct.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists.WithDetails(map[string]string{
				"account": "already linked",
			})
		}
		return domain.ErrDatabaseError.WithError(err)
	}

	return nil
}

func (r *SocialAccountRepository) TouchLogin(ctx context.Context, id uuid.UUID, extraData []byte) error {
	query := `
		UPDATE social_accounts
		SET last_login = $1, extra_data = $2::jsonb
		WHERE id = $3
	`

	extra := string(extraData)
	if extra == "" {
		extra = "{}"
	}

	if _, err := r.db.ExecContext(ctx, query, time.Now(), extra, id); err != nil {
		return domain.ErrDatabaseError.WithError(err)
	}
	return nil
}
