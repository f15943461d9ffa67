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

const bearerPrefix = "Bearer "

// ResolveUser разрешает пользователя по заголовку Authorization:
// заголовок → токен → claims → проверка типа → поиск по email →
// (для REFRESH) сверка с сохранённым хэшем.
// Хранилище только читается.
func (s *Service) ResolveUser(ctx context.Context, authHeader string, required models.TokenType) (*models.User, error) {
	const op = "service.resolver.ResolveUser"

	lg := log.From(ctx)

	raw, ok := bearerToken(authHeader)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingAuthHeader)
	}

	claims, err := s.codec.Decode(raw)
	if err != nil {
		lg.Debug("token_rejected",
			slog.String("op", op),
			slog.String("authorization", redact.AuthHeader(authHeader)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	if claims.Type != required {
		lg.Debug("token_wrong_type",
			slog.String("op", op),
			slog.String("got", claims.Type.String()),
			slog.String("want", required.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrWrongTokenType)
	}

	// REFRESH сверяется со слотом из основного хранилища, минуя кэш.
	lookup := s.storage.UserByEmail
	if required == models.TokenRefresh {
		lookup = s.storage.RefreshSlotOwner
	}

	user, err := lookup(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if required == models.TokenRefresh {
		// Пустой слот и несовпадение хэша неразличимы снаружи.
		if !user.HasRefreshToken() || !s.hasher.Verify(token.Fingerprint(raw), *user.HashedRefreshToken) {
			lg.Warn("refresh_token_mismatch",
				slog.String("op", op),
				slog.Int64("user_id", user.ID),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenInvalid)
		}
	}

	return user, nil
}

// bearerToken извлекает токен из "Bearer <token>". Схема чувствительна к регистру.
func bearerToken(h string) (string, bool) {
	raw, found := strings.CutPrefix(h, bearerPrefix)
	if !found {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}

	return raw, true
}
