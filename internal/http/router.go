package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-foody/internal/http/handlers"
	"github.com/pribylovaa/go-foody/internal/http/metrics"
	"github.com/pribylovaa/go-foody/internal/http/middleware"
	"github.com/pribylovaa/go-foody/internal/models"
)

// Service: сервисный слой целиком: хендлеры и разрешение пользователя.
type Service interface {
	handlers.Service
	middleware.Resolver
}

// Options: параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Metrics может быть nil: тогда метрики не собираются и /metrics не регистрируется.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	// Ready: readiness-проверка для /healthz; nil означает "всегда готов".
	Ready          func(r *http.Request) error
	MaxUploadBytes int64
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования!
		middleware.Logging(opts.Logger),
		middleware.Metrics(opts.Metrics),
		middleware.Timeout(opts.Timeout),
	)

	registerProbes(root, opts)
	registerRoutes(root, svc, handlers.New(svc, opts.MaxUploadBytes), opts.Metrics)

	return root
}

// registerRoutes: единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, res middleware.Resolver, h *handlers.Handlers, m *metrics.Metrics) {
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/signin", h.Signin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(res, models.TokenRefresh, m))
		r.Get("/auth/refresh", h.Refresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(res, models.TokenAccess, m))
		r.Get("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)
		r.Patch("/auth/me", h.EditMe)
		r.Patch("/auth/category", h.Categories)
		r.Post("/images", h.Images)
	})
}

func registerProbes(r chi.Router, opts Options) {
	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Metrics != nil {
		mh := opts.MetricsHandler
		if mh == nil {
			mh = promhttp.Handler()
		}
		r.Method(http.MethodGet, "/metrics", mh)
	}
}
