package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/pkg/log"
	"github.com/pribylovaa/go-foody/internal/pkg/redact"
	"github.com/pribylovaa/go-foody/internal/storage"
	"github.com/pribylovaa/go-foody/internal/token"
)

const maxNicknameLen = 20

// Signup регистрирует пользователя и возвращает его ID. Токены не выпускаются.
// Формат e-mail и пароля проверяет транспорт.
func (s *Service) Signup(ctx context.Context, email, password string) (int64, error) {
	const op = "service.auth.Signup"

	lg := log.From(ctx)

	email = normalizeEmail(email)

	_, err := s.storage.UserByEmail(ctx, email)
	if err == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrEmailDuplicate)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		LoginType:    models.LoginTypeEmail,
		Nickname:     defaultNickname(email),
	}

	id, err := s.storage.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return 0, fmt.Errorf("%s: %w", op, ErrEmailDuplicate)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_signed_up",
		slog.String("op", op),
		slog.Int64("user_id", id),
		slog.String("email", redact.Email(email)),
	)

	return id, nil
}

// Signin проверяет пароль, выпускает пару токенов и перезаписывает слот refresh-токена.
func (s *Service) Signin(ctx context.Context, email, password string) (models.TokenPair, error) {
	const op = "service.auth.Signin"

	lg := log.From(ctx)

	email = normalizeEmail(email)

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		lg.Warn("signin_wrong_password",
			slog.String("op", op),
			slog.Int64("user_id", user.ID),
		)
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrWrongPassword)
	}

	pair, slot, err := s.issuePair(user.Email)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	// Последний вход выигрывает: предыдущий refresh-токен перестаёт действовать.
	if _, err := s.storage.SetRefreshToken(ctx, user.ID, &slot); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_signed_in",
		slog.String("op", op),
		slog.Int64("user_id", user.ID),
	)

	return pair, nil
}

// Refresh выпускает новую пару для пользователя, уже прошедшего ResolveUser с REFRESH-токеном,
// и заменяет хэш в слоте через compare-and-swap. Предъявленный токен становится недействительным.
func (s *Service) Refresh(ctx context.Context, user *models.User) (models.TokenPair, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	if !user.HasRefreshToken() {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrRefreshTokenInvalid)
	}

	pair, slot, err := s.issuePair(user.Email)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.SwapRefreshToken(ctx, user.ID, *user.HashedRefreshToken, slot); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_swap_lost",
				slog.String("op", op),
				slog.Int64("user_id", user.ID),
			)
			return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrRefreshTokenInvalid)
		}

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("tokens_refreshed",
		slog.String("op", op),
		slog.Int64("user_id", user.ID),
	)

	return pair, nil
}

// Logout очищает слот refresh-токена. Выданные access-токены действуют до своего exp.
func (s *Service) Logout(ctx context.Context, user *models.User) (int64, error) {
	const op = "service.auth.Logout"

	if _, err := s.storage.SetRefreshToken(ctx, user.ID, nil); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_logged_out",
		slog.String("op", op),
		slog.Int64("user_id", user.ID),
	)

	return user.ID, nil
}

// CleanupExpiredRefreshTokens очищает истёкшие слоты (вызывается janitor'ом).
func (s *Service) CleanupExpiredRefreshTokens(ctx context.Context) (int64, error) {
	const op = "service.auth.CleanupExpiredRefreshTokens"

	n, err := s.storage.ClearExpiredRefreshTokens(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// issuePair выпускает ACCESS и REFRESH токены с sub = email и готовит новый слот.
func (s *Service) issuePair(email string) (models.TokenPair, models.RefreshSlot, error) {
	access, _, err := s.codec.Issue(email, models.TokenAccess)
	if err != nil {
		return models.TokenPair{}, models.RefreshSlot{}, err
	}

	refresh, claims, err := s.codec.Issue(email, models.TokenRefresh)
	if err != nil {
		return models.TokenPair{}, models.RefreshSlot{}, err
	}

	hash, err := s.hasher.Hash(token.Fingerprint(refresh))
	if err != nil {
		return models.TokenPair{}, models.RefreshSlot{}, err
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh},
		models.RefreshSlot{Hash: hash, ExpiresAt: claims.ExpiresAt},
		nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// defaultNickname: локальная часть e-mail, обрезанная до допустимой длины.
func defaultNickname(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if r := []rune(local); len(r) > maxNicknameLen {
		return string(r[:maxNicknameLen])
	}

	return local
}
