// cached: декоратор storage.Storage с read-through кэшем пользователей по email.
//
// Кэш заполняется при чтении UserByEmail и инвалидируется после каждой записи,
// возвращающей строку пользователя. Слот refresh-токена из кэша не читается:
// RefreshSlotOwner идёт мимо него. Ошибки кэша не ломают запрос:
// запрос уходит в БД, ошибка пишется в лог.
package cached

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-foody/internal/cache"
	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/pkg/log"
	"github.com/pribylovaa/go-foody/internal/pkg/redact"
	"github.com/pribylovaa/go-foody/internal/storage"
)

// Storage оборачивает хранилище и кэш.
type Storage struct {
	storage.Storage
	cache cache.UserCache
}

// New создаёт декоратор.
func New(st storage.Storage, c cache.UserCache) *Storage {
	return &Storage{Storage: st, cache: c}
}

// UserByEmail читает из кэша, при промахе из БД с последующей записью в кэш.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.cached.UserByEmail"

	lg := log.From(ctx)

	u, ok, err := s.cache.Get(ctx, email)
	if err != nil {
		lg.Warn("user_cache_get_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(email)),
			slog.String("err", err.Error()),
		)
	}
	if ok {
		return u, nil
	}

	u, err = s.Storage.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, u); err != nil {
		lg.Warn("user_cache_set_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(email)),
			slog.String("err", err.Error()),
		)
	}

	return u, nil
}

// RefreshSlotOwner всегда идёт в БД: заполнение кэша, начатое до ротации,
// может вернуть в Redis уже заменённый хэш.
func (s *Storage) RefreshSlotOwner(ctx context.Context, email string) (*models.User, error) {
	return s.Storage.RefreshSlotOwner(ctx, email)
}

// UpdateProfile пишет в БД и инвалидирует кэш.
func (s *Storage) UpdateProfile(ctx context.Context, id int64, nickname string, imageURI *string) (*models.User, error) {
	return s.invalidate(ctx)(s.Storage.UpdateProfile(ctx, id, nickname, imageURI))
}

// UpdateCategories пишет в БД и инвалидирует кэш.
func (s *Storage) UpdateCategories(ctx context.Context, id int64, c models.Categories) (*models.User, error) {
	return s.invalidate(ctx)(s.Storage.UpdateCategories(ctx, id, c))
}

// SetRefreshToken пишет в БД и инвалидирует кэш.
func (s *Storage) SetRefreshToken(ctx context.Context, id int64, slot *models.RefreshSlot) (*models.User, error) {
	return s.invalidate(ctx)(s.Storage.SetRefreshToken(ctx, id, slot))
}

// SwapRefreshToken пишет в БД и инвалидирует кэш.
func (s *Storage) SwapRefreshToken(ctx context.Context, id int64, prevHash string, next models.RefreshSlot) (*models.User, error) {
	return s.invalidate(ctx)(s.Storage.SwapRefreshToken(ctx, id, prevHash, next))
}

// ClearExpiredRefreshTokens затрагивает произвольных пользователей, поэтому
// кэш не трогаем: записи доживут свой TTL, а просроченный refresh-токен
// отсекается проверкой exp ещё до сравнения хэшей.
func (s *Storage) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	return s.Storage.ClearExpiredRefreshTokens(ctx, now)
}

// invalidate удаляет запись пользователя, которого вернула запись в БД.
func (s *Storage) invalidate(ctx context.Context) func(*models.User, error) (*models.User, error) {
	return func(u *models.User, err error) (*models.User, error) {
		if err != nil {
			return nil, err
		}

		if derr := s.cache.Delete(ctx, u.Email); derr != nil {
			log.From(ctx).Warn("user_cache_invalidate_failed",
				slog.String("op", "storage.cached.invalidate"),
				slog.Int64("user_id", u.ID),
				slog.String("err", derr.Error()),
			)
		}

		return u, nil
	}
}

// Close закрывает кэш и хранилище.
func (s *Storage) Close() {
	_ = s.cache.Close()
	s.Storage.Close()
}

var _ storage.Storage = (*Storage)(nil)
