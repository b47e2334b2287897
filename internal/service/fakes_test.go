package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aminshahid573/authapi/internal/cache"
	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/google/uuid"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// memStore mirrors cache.RedisClient semantics in memory.
type memStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]memEntry)}
}

func (m *memStore) live(key string) (memEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memEntry{}, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return memEntry{}, false
	}
	return e, true
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{data: data}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *memStore) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	e, ok := m.live(key)
	m.mu.Unlock()
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(e.data, dest)
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(key)
	return ok, nil
}

func (m *memStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, _ := m.live(key)
	var n int64
	if len(e.data) > 0 {
		n, _ = strconv.ParseInt(string(e.data), 10, 64)
	}
	n++
	e.data = []byte(strconv.FormatInt(n, 10))
	m.entries[key] = e
	return n, nil
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.live(key); ok {
		e.expiresAt = time.Now().Add(ttl)
		m.entries[key] = e
	}
	return nil
}

func (m *memStore) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok || e.expiresAt.IsZero() {
		return 0, nil
	}
	return time.Until(e.expiresAt), nil
}

func (m *memStore) has(key string) bool {
	ok, _ := m.Exists(context.Background(), key)
	return ok
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) findByEmail(email string) *domain.User {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (r *memUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByEmail(email) != nil, nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findByEmail(user.Email) != nil {
		return domain.ErrAlreadyExists
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.findByEmail(email)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Name = user.Name
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *memUserRepo) VerifyEmail(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	now := time.Now()
	u.EmailVerified = true
	u.EmailVerifiedAt = &now
	return nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type memSocialRepo struct {
	mu       sync.Mutex
	accounts []*domain.SocialAccount
	touched  int
}

func (r *memSocialRepo) GetByProviderUID(_ context.Context, provider domain.Provider, uid string) (*domain.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Provider == provider && a.UID == uid {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memSocialRepo) Create(_ context.Context, acct *domain.SocialAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct.ID = uuid.New()
	acct.CreatedAt = time.Now()
	cp := *acct
	r.accounts = append(r.accounts, &cp)
	return nil
}

func (r *memSocialRepo) TouchLogin(_ context.Context, _ uuid.UUID, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched++
	return nil
}

type recordingRevoker struct {
	revoked []uuid.UUID
}

func (r *recordingRevoker) RevokeRefreshToken(_ context.Context, userID uuid.UUID) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

type stubIssuer struct{}

func (stubIssuer) IssueTokens(_ context.Context, user *domain.User) (*domain.LoginResponse, error) {
	return &domain.LoginResponse{
		TokenResponse: domain.TokenResponse{AccessToken: "access-" + user.ID.String(), RefreshToken: "refresh"},
		User:          domain.NewUserProfile(user),
	}, nil
}
