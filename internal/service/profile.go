package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/storage"
)

// Profile возвращает публичное представление пользователя.
func (s *Service) Profile(user *models.User) models.ProfileResponse {
	return models.NewProfileResponse(user)
}

// EditProfile меняет никнейм (1–20 символов) и ссылку на аватар.
func (s *Service) EditProfile(ctx context.Context, user *models.User, nickname string, imageURI *string) (*models.User, error) {
	const op = "service.profile.EditProfile"

	req := models.EditProfileRequest{Nickname: nickname, ImageURI: imageURI}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidArgument, err)
	}

	updated, err := s.storage.UpdateProfile(ctx, user.ID, nickname, imageURI)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// UpdateCategories меняет подписи пяти цветов маркеров (каждая до 50 символов).
func (s *Service) UpdateCategories(ctx context.Context, user *models.User, c models.Categories) (*models.User, error) {
	const op = "service.profile.UpdateCategories"

	if err := models.CategoriesRequest(c).Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidArgument, err)
	}

	updated, err := s.storage.UpdateCategories(ctx, user.ID, c)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}
