package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/storage"
)

const userColumns = `
	id, email, password_hash, hashed_refresh_token, refresh_expires_at,
	login_type, nickname, image_uri,
	category_red, category_yellow, category_green, category_blue, category_purple,
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.HashedRefreshToken,
		&u.RefreshExpiresAt,
		&u.LoginType,
		&u.Nickname,
		&u.ImageURI,
		&u.Categories.Red,
		&u.Categories.Yellow,
		&u.Categories.Green,
		&u.Categories.Blue,
		&u.Categories.Purple,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// queryUser выполняет запрос, возвращающий ровно одну строку пользователя.
func (s *Storage) queryUser(ctx context.Context, op, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// SaveUser создаёт нового пользователя в БД.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) (int64, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(email, password_hash, login_type, nickname,
			category_red, category_yellow, category_green, category_blue, category_purple)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.LoginType,
		user.Nickname,
		user.Categories.Red,
		user.Categories.Yellow,
		user.Categories.Green,
		user.Categories.Blue,
		user.Categories.Purple,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return user.ID, nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.queryUser(ctx, "storage.postgres.UserByEmail",
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.queryUser(ctx, "storage.postgres.UserByID",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// UpdateProfile меняет никнейм и ссылку на аватар.
func (s *Storage) UpdateProfile(ctx context.Context, id int64, nickname string, imageURI *string) (*models.User, error) {
	return s.queryUser(ctx, "storage.postgres.UpdateProfile", `
		UPDATE users
		SET nickname = $2, image_uri = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, nickname, imageURI)
}

// UpdateCategories меняет подписи цветов маркеров.
func (s *Storage) UpdateCategories(ctx context.Context, id int64, c models.Categories) (*models.User, error) {
	return s.queryUser(ctx, "storage.postgres.UpdateCategories", `
		UPDATE users
		SET category_red = $2, category_yellow = $3, category_green = $4,
			category_blue = $5, category_purple = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, c.Red, c.Yellow, c.Green, c.Blue, c.Purple)
}
