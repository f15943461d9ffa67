// service содержит бизнес-логику foody: жизненный цикл access/refresh токенов,
// разрешение пользователя по заголовку Authorization, профиль и загрузку изображений.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для конкурентного
//     использования при условии, что хранилища потокобезопасны.
//   - Ошибки возвращаются обёрнутыми через %w и далее маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным ниже).
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/go-foody/internal/config"
	"github.com/pribylovaa/go-foody/internal/hasher"
	"github.com/pribylovaa/go-foody/internal/storage"
	"github.com/pribylovaa/go-foody/internal/token"
)

var (
	// ErrEmailDuplicate: e-mail уже зарегистрирован. Транспорт: HTTP 409.
	ErrEmailDuplicate = errors.New("email already registered")

	// ErrUserNotFound: пользователь не найден. Транспорт: HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrWrongPassword: пароль не совпал с хэшем. Транспорт: HTTP 400.
	ErrWrongPassword = errors.New("wrong password")

	// ErrMissingAuthHeader: нет заголовка Authorization или он не вида "Bearer <token>".
	// Транспорт: HTTP 401.
	ErrMissingAuthHeader = errors.New("missing or malformed authorization header")

	// ErrInvalidToken: токен не прошёл проверку кодеком; конкретный вид
	// (token.ErrExpired и т.д.) доступен через errors.Is. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongTokenType: тип токена не совпадает с требуемым. Транспорт: HTTP 401.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrRefreshTokenInvalid: refresh-токен не совпадает с сохранённым хэшем,
	// слот пуст или проиграна гонка ротации. Транспорт: HTTP 401.
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")

	// ErrInvalidArgument: входные данные не прошли валидацию. Транспорт: HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTooManyImages: файлов больше images.max_count. Транспорт: HTTP 400.
	ErrTooManyImages = errors.New("too many images")

	// ErrUnsupportedMediaType: файл не image/*. Транспорт: HTTP 415.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrImageTooLarge: файл больше images.max_size_bytes. Транспорт: HTTP 413.
	ErrImageTooLarge = errors.New("image too large")

	// ErrImagesDisabled: хранилище изображений не сконфигурировано. Транспорт: HTTP 503.
	ErrImagesDisabled = errors.New("image storage is not configured")
)

// Service описывает бизнес-логику.
type Service struct {
	storage storage.Storage
	hasher  hasher.Hasher
	codec   *token.Codec

	images    storage.ImageStorage // может быть nil, если S3 не сконфигурирован
	imagesCfg config.ImagesConfig

	now func() time.Time
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, h hasher.Hasher, codec *token.Codec) *Service {
	return &Service{
		storage: st,
		hasher:  h,
		codec:   codec,
		now:     time.Now,
	}
}

// SetImageStorage подключает хранилище изображений (опционально).
func (s *Service) SetImageStorage(img storage.ImageStorage, cfg config.ImagesConfig) {
	s.images = img
	s.imagesCfg = cfg
}
