// cache: read-through кэш пользователей в Redis, ключ: email.
package cache

//go:generate mockgen -destination=../../mocks/cache_mock.go -package=mocks github.com/pribylovaa/go-foody/internal/cache UserCache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/redis/go-redis/v9"
)

// UserCache: минимальный контракт кэша пользователей.
type UserCache interface {
	// Get возвращает пользователя и признак его наличия в кэше.
	Get(ctx context.Context, email string) (*models.User, bool, error)
	// Set сохраняет пользователя с TTL кэша.
	Set(ctx context.Context, u *models.User) error
	// Delete инвалидирует запись.
	Delete(ctx context.Context, email string) error
	// Close закрывает клиент Redis.
	Close() error
}

// RedisCache хранит пользователя как Redis Hash.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой, используется "foody:user:".
func NewRedisCache(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*RedisCache, error) {
	const op = "cache.NewRedisCache"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewFromClient(rdb, prefix, ttl), nil
}

// NewFromClient оборачивает готовый клиент.
func NewFromClient(rdb *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "foody:user:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(email string) string { return c.prefix + email }

// Поля хэша.
const (
	fID        = "id"
	fEmail     = "email"
	fPassword  = "pwd"
	fRefresh   = "rth"
	fRefreshAt = "rexp"
	fLoginType = "lt"
	fNickname  = "nick"
	fImage     = "img"
	fRed       = "c_red"
	fYellow    = "c_yellow"
	fGreen     = "c_green"
	fBlue      = "c_blue"
	fPurple    = "c_purple"
	fCreated   = "created"
	fUpdated   = "updated"
)

// Get читает запись. Повреждённая запись считается промахом с ошибкой.
func (c *RedisCache) Get(ctx context.Context, email string) (*models.User, bool, error) {
	const op = "cache.Get"

	m, err := c.rdb.HGetAll(ctx, c.key(email)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	u, err := decodeUser(m)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return u, true, nil
}

// Set записывает пользователя целиком: старые поля удаляются в той же транзакции.
func (c *RedisCache) Set(ctx context.Context, u *models.User) error {
	const op = "cache.Set"

	k := c.key(u.Email)

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, encodeUser(u))
	pipe.Expire(ctx, k, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete удаляет запись (отсутствие ключа не ошибка).
func (c *RedisCache) Delete(ctx context.Context, email string) error {
	const op = "cache.Delete"

	if err := c.rdb.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент.
func (c *RedisCache) Close() error { return c.rdb.Close() }

func encodeUser(u *models.User) map[string]string {
	kv := map[string]string{
		fID:        strconv.FormatInt(u.ID, 10),
		fEmail:     u.Email,
		fPassword:  u.PasswordHash,
		fLoginType: u.LoginType,
		fNickname:  u.Nickname,
		fRed:       u.Categories.Red,
		fYellow:    u.Categories.Yellow,
		fGreen:     u.Categories.Green,
		fBlue:      u.Categories.Blue,
		fPurple:    u.Categories.Purple,
		fCreated:   strconv.FormatInt(u.CreatedAt.UnixNano(), 10),
		fUpdated:   strconv.FormatInt(u.UpdatedAt.UnixNano(), 10),
	}

	// nil-поля просто не пишем.
	if u.HashedRefreshToken != nil {
		kv[fRefresh] = *u.HashedRefreshToken
	}
	if u.RefreshExpiresAt != nil {
		kv[fRefreshAt] = strconv.FormatInt(u.RefreshExpiresAt.UnixNano(), 10)
	}
	if u.ImageURI != nil {
		kv[fImage] = *u.ImageURI
	}

	return kv
}

func decodeUser(m map[string]string) (*models.User, error) {
	id, err := strconv.ParseInt(m[fID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", fID, err)
	}

	created, err := parseNano(m[fCreated])
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", fCreated, err)
	}

	updated, err := parseNano(m[fUpdated])
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", fUpdated, err)
	}

	u := &models.User{
		ID:           id,
		Email:        m[fEmail],
		PasswordHash: m[fPassword],
		LoginType:    m[fLoginType],
		Nickname:     m[fNickname],
		Categories: models.Categories{
			Red:    m[fRed],
			Yellow: m[fYellow],
			Green:  m[fGreen],
			Blue:   m[fBlue],
			Purple: m[fPurple],
		},
		CreatedAt: created,
		UpdatedAt: updated,
	}

	if v, ok := m[fRefresh]; ok {
		u.HashedRefreshToken = &v
	}
	if v, ok := m[fRefreshAt]; ok {
		t, err := parseNano(v)
		if err != nil {
			return nil, fmt.Errorf("bad %s: %w", fRefreshAt, err)
		}
		u.RefreshExpiresAt = &t
	}
	if v, ok := m[fImage]; ok {
		u.ImageURI = &v
	}

	return u, nil
}

func parseNano(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(0, n).UTC(), nil
}
