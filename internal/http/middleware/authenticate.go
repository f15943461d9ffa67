package middleware

import (
	"context"
	"net/http"

	apierrors "github.com/pribylovaa/go-foody/internal/errors"
	"github.com/pribylovaa/go-foody/internal/http/metrics"
	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/pkg/log"
)

// Resolver разрешает пользователя по заголовку Authorization.
type Resolver interface {
	ResolveUser(ctx context.Context, authHeader string, required models.TokenType) (*models.User, error)
}

type userKey struct{}

// Authenticate пропускает запрос дальше только при успешном разрешении
// пользователя токеном типа required. Пользователь кладётся в контекст.
// m может быть nil.
func Authenticate(res Resolver, required models.TokenType, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := res.ResolveUser(r.Context(), r.Header.Get("Authorization"), required)
			if err != nil {
				if m != nil {
					m.AuthRejections.WithLabelValues(apierrors.Code(err)).Inc()
				}
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			ctx = log.With(ctx, "user_id", user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom достаёт аутентифицированного пользователя из контекста.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok && u != nil
}

// WithUser кладёт пользователя в контекст (используется в тестах хендлеров).
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}
