package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/go-foody/internal/models"
)

// RefreshSlotOwner читает пользователя по email для проверки refresh-токена.
func (s *Storage) RefreshSlotOwner(ctx context.Context, email string) (*models.User, error) {
	return s.queryUser(ctx, "storage.postgres.RefreshSlotOwner",
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// SetRefreshToken безусловно перезаписывает слот refresh-токена (последний пишущий выигрывает).
// slot == nil очищает слот.
func (s *Storage) SetRefreshToken(ctx context.Context, id int64, slot *models.RefreshSlot) (*models.User, error) {
	const op = "storage.postgres.SetRefreshToken"

	var (
		hash *string
		exp  *time.Time
	)
	if slot != nil {
		hash, exp = &slot.Hash, &slot.ExpiresAt
	}

	return s.queryUser(ctx, op, `
		UPDATE users
		SET hashed_refresh_token = $2, refresh_expires_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, hash, exp)
}

// SwapRefreshToken заменяет слот, только если в нём всё ещё prevHash.
// Из двух конкурентных ротаций одного токена проходит ровно одна;
// проигравшая получает storage.ErrNotFound.
func (s *Storage) SwapRefreshToken(ctx context.Context, id int64, prevHash string, next models.RefreshSlot) (*models.User, error) {
	const op = "storage.postgres.SwapRefreshToken"

	return s.queryUser(ctx, op, `
		UPDATE users
		SET hashed_refresh_token = $3, refresh_expires_at = $4, updated_at = now()
		WHERE id = $1 AND hashed_refresh_token = $2
		RETURNING `+userColumns, id, prevHash, next.Hash, next.ExpiresAt)
}

// ClearExpiredRefreshTokens очищает слоты, срок которых истёк к now.
func (s *Storage) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.ClearExpiredRefreshTokens"

	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET hashed_refresh_token = NULL, refresh_expires_at = NULL, updated_at = now()
		WHERE refresh_expires_at IS NOT NULL AND refresh_expires_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
