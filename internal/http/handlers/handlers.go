package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apierrors "github.com/pribylovaa/go-foody/internal/errors"
	"github.com/pribylovaa/go-foody/internal/http/middleware"
	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/service"
)

// AuthService: жизненный цикл токенов.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (int64, error)
	Signin(ctx context.Context, email, password string) (models.TokenPair, error)
	Refresh(ctx context.Context, user *models.User) (models.TokenPair, error)
	Logout(ctx context.Context, user *models.User) (int64, error)
}

// ProfileService: редактирование профиля.
type ProfileService interface {
	Profile(user *models.User) models.ProfileResponse
	EditProfile(ctx context.Context, user *models.User, nickname string, imageURI *string) (*models.User, error)
	UpdateCategories(ctx context.Context, user *models.User, c models.Categories) (*models.User, error)
}

// ImageService: загрузка изображений.
type ImageService interface {
	UploadImages(ctx context.Context, user *models.User, files []service.Upload) ([]string, error)
}

// Service: всё, что нужно хендлерам от сервисного слоя.
type Service interface {
	AuthService
	ProfileService
	ImageService
}

// Handlers агрегирует зависимости.
type Handlers struct {
	svc Service
	// maxUploadBytes ограничивает тело multipart-запроса целиком.
	maxUploadBytes int64
}

// New создаёт хендлеры. maxUploadBytes <= 0 снимает ограничение тела загрузки.
func New(svc Service, maxUploadBytes int64) *Handlers {
	return &Handlers{svc: svc, maxUploadBytes: maxUploadBytes}
}

// writeJSON: единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict: строгий JSON-декодер: запрещаем неизвестные поля.
// Любая ошибка разбора превращается в ErrInvalidArgument.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode body: %w", service.ErrInvalidArgument)
	}
	return nil
}

// currentUser достаёт пользователя, положенного Authenticate.
// Отсутствие пользователя: ошибка сборки роутера, отвечаем 500.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, errNoPrincipal)
		return nil, false
	}
	return u, true
}
