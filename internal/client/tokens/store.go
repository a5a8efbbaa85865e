// Package tokens holds the client's bearer credentials. It is plain storage:
// nothing here looks inside a token or decides whether it is still valid.
package tokens

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/repositories/kv"
)

// Keys under which the credentials are persisted. They are independent so
// the access token can be replaced without touching the refresh token.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// Store is the credential storage used by the API client and the session.
type Store interface {
	Set(ctx context.Context, pair models.CredentialPair) error
	SetAccessToken(ctx context.Context, token string) error
	// Rotate stores the result of exchanging refreshToken, but only while
	// refreshToken is still the stored one. An empty pair.RefreshToken keeps
	// the current refresh token. It reports whether the store was updated.
	Rotate(ctx context.Context, refreshToken string, pair models.CredentialPair) (bool, error)
	Get(ctx context.Context) (*models.CredentialPair, error)
	Clear(ctx context.Context) error
	HasCredentials(ctx context.Context) bool
}

// SQLiteStore persists credentials in the local client database.
type SQLiteStore struct {
	repo kv.Repository
}

func NewSQLiteStore(repo kv.Repository) *SQLiteStore {
	return &SQLiteStore{repo: repo}
}

func (s *SQLiteStore) Set(ctx context.Context, pair models.CredentialPair) error {
	return s.repo.SetMany(ctx, map[string][]byte{
		AccessTokenKey:  []byte(pair.AccessToken),
		RefreshTokenKey: []byte(pair.RefreshToken),
	})
}

func (s *SQLiteStore) SetAccessToken(ctx context.Context, token string) error {
	return s.repo.Set(ctx, AccessTokenKey, []byte(token))
}

func (s *SQLiteStore) Rotate(ctx context.Context, refreshToken string, pair models.CredentialPair) (bool, error) {
	if refreshToken == "" {
		return false, nil
	}
	values := map[string][]byte{AccessTokenKey: []byte(pair.AccessToken)}
	if pair.RefreshToken != "" {
		values[RefreshTokenKey] = []byte(pair.RefreshToken)
	}
	return s.repo.SetManyIf(ctx, RefreshTokenKey, []byte(refreshToken), values)
}

// Get returns nil when neither credential is stored.
func (s *SQLiteStore) Get(ctx context.Context) (*models.CredentialPair, error) {
	access, err := s.repo.Get(ctx, AccessTokenKey)
	if err != nil {
		return nil, err
	}
	refresh, err := s.repo.Get(ctx, RefreshTokenKey)
	if err != nil {
		return nil, err
	}
	if len(access) == 0 && len(refresh) == 0 {
		return nil, nil
	}
	return &models.CredentialPair{AccessToken: string(access), RefreshToken: string(refresh)}, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, AccessTokenKey, RefreshTokenKey)
}

// HasCredentials treats a read failure as "no credentials".
func (s *SQLiteStore) HasCredentials(ctx context.Context) bool {
	pair, err := s.Get(ctx)
	return err == nil && pair != nil
}

// MemoryStore keeps credentials for the lifetime of the process only.
type MemoryStore struct {
	mu   sync.RWMutex
	pair models.CredentialPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Set(_ context.Context, pair models.CredentialPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	return nil
}

func (m *MemoryStore) SetAccessToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair.AccessToken = token
	return nil
}

func (m *MemoryStore) Rotate(_ context.Context, refreshToken string, pair models.CredentialPair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if refreshToken == "" || m.pair.RefreshToken != refreshToken {
		return false, nil
	}
	m.pair.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		m.pair.RefreshToken = pair.RefreshToken
	}
	return true, nil
}

func (m *MemoryStore) Get(_ context.Context) (*models.CredentialPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pair.AccessToken == "" && m.pair.RefreshToken == "" {
		return nil, nil
	}
	p := m.pair
	return &p, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = models.CredentialPair{}
	return nil
}

func (m *MemoryStore) HasCredentials(ctx context.Context) bool {
	p, _ := m.Get(ctx)
	return p != nil
}
