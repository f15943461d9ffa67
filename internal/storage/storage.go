package storage

//go:generate mockgen -destination=../../mocks/storage_mock.go -package=mocks github.com/pribylovaa/go-foody/internal/storage Storage,ImageStorage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/pribylovaa/go-foody/internal/models"
)

var (
	// ErrNotFound: запись не найдена, либо условие compare-and-swap не выполнено.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт пользователя и возвращает присвоенный ID.
	SaveUser(ctx context.Context, user *models.User) (int64, error)
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id int64) (*models.User, error)
	// UpdateProfile меняет никнейм и ссылку на аватар.
	UpdateProfile(ctx context.Context, id int64, nickname string, imageURI *string) (*models.User, error)
	// UpdateCategories меняет подписи цветов маркеров.
	UpdateCategories(ctx context.Context, id int64, c models.Categories) (*models.User, error)
}

// RefreshSlotStorage управляет единственным слотом refresh-токена пользователя.
type RefreshSlotStorage interface {
	// RefreshSlotOwner читает пользователя вместе с текущим слотом из основного
	// хранилища. Декораторы с кэшем обязаны пропускать вызов напрямую.
	RefreshSlotOwner(ctx context.Context, email string) (*models.User, error)
	// SetRefreshToken безусловно перезаписывает слот; nil очищает его.
	SetRefreshToken(ctx context.Context, id int64, slot *models.RefreshSlot) (*models.User, error)
	// SwapRefreshToken заменяет слот, только если в нём всё ещё лежит prevHash.
	// Несовпадение возвращает ErrNotFound.
	SwapRefreshToken(ctx context.Context, id int64, prevHash string, next models.RefreshSlot) (*models.User, error)
	// ClearExpiredRefreshTokens очищает слоты, истёкшие к моменту now.
	ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshSlotStorage
	Close()
}

// ImageStorage: объектное хранилище загруженных изображений.
type ImageStorage interface {
	// PutImage сохраняет объект под ключом key.
	PutImage(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// URL возвращает публичную ссылку на объект.
	URL(key string) string
}
