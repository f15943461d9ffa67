package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-foody/internal/config"
	"github.com/pribylovaa/go-foody/internal/hasher"
	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/storage"
	"github.com/pribylovaa/go-foody/internal/token"
	"github.com/pribylovaa/go-foody/mocks"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "unit-test-secret-0123456789abcdef",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 14 * 24 * time.Hour,
		Issuer:          "foody",
		Audience:        []string{"foody-app"},
	}
}

func newCodec(t *testing.T) *token.Codec {
	t.Helper()

	c, err := token.NewCodec(testCfg())
	require.NoError(t, err)
	return c
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	return New(st, hasher.NewBcrypt(bcrypt.MinCost), newCodec(t)), st
}

func mustHash(t *testing.T, secret string) string {
	t.Helper()

	h, err := hasher.NewBcrypt(bcrypt.MinCost).Hash(secret)
	require.NoError(t, err)
	return h
}

// memStorage: потокобезопасное хранилище в памяти с той же семантикой,
// что у PostgreSQL-реализации (BIGSERIAL с 1, CAS по хэшу слота).
type memStorage struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
}

func newMemStorage() *memStorage {
	return &memStorage{nextID: 1, users: map[int64]models.User{}}
}

func (m *memStorage) copyOf(u models.User) *models.User { return &u }

func (m *memStorage) SaveUser(_ context.Context, u *models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, storage.ErrAlreadyExists
		}
	}

	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u

	return u.ID, nil
}

func (m *memStorage) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return m.copyOf(u), nil
		}
	}

	return nil, storage.ErrNotFound
}

func (m *memStorage) RefreshSlotOwner(ctx context.Context, email string) (*models.User, error) {
	return m.UserByEmail(ctx, email)
}

func (m *memStorage) UserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return m.copyOf(u), nil
}

func (m *memStorage) update(id int64, fn func(u *models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || !fn(&u) {
		return nil, storage.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u

	return m.copyOf(u), nil
}

func (m *memStorage) UpdateProfile(_ context.Context, id int64, nickname string, imageURI *string) (*models.User, error) {
	return m.update(id, func(u *models.User) bool {
		u.Nickname, u.ImageURI = nickname, imageURI
		return true
	})
}

func (m *memStorage) UpdateCategories(_ context.Context, id int64, c models.Categories) (*models.User, error) {
	return m.update(id, func(u *models.User) bool {
		u.Categories = c
		return true
	})
}

func (m *memStorage) SetRefreshToken(_ context.Context, id int64, slot *models.RefreshSlot) (*models.User, error) {
	return m.update(id, func(u *models.User) bool {
		if slot == nil {
			u.HashedRefreshToken, u.RefreshExpiresAt = nil, nil
			return true
		}
		h, exp := slot.Hash, slot.ExpiresAt
		u.HashedRefreshToken, u.RefreshExpiresAt = &h, &exp
		return true
	})
}

func (m *memStorage) SwapRefreshToken(_ context.Context, id int64, prevHash string, next models.RefreshSlot) (*models.User, error) {
	return m.update(id, func(u *models.User) bool {
		if u.HashedRefreshToken == nil || *u.HashedRefreshToken != prevHash {
			return false
		}
		h, exp := next.Hash, next.ExpiresAt
		u.HashedRefreshToken, u.RefreshExpiresAt = &h, &exp
		return true
	})
}

func (m *memStorage) ClearExpiredRefreshTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, u := range m.users {
		if u.RefreshExpiresAt != nil && !u.RefreshExpiresAt.After(now) {
			u.HashedRefreshToken, u.RefreshExpiresAt = nil, nil
			m.users[id] = u
			n++
		}
	}

	return n, nil
}

func (m *memStorage) Close() {}

var _ storage.Storage = (*memStorage)(nil)
