package router

import (
	"github.com/barna-bash/URelf/internal/handlers"
	"github.com/barna-bash/URelf/internal/middleware"
	"github.com/barna-bash/URelf/internal/repositories"
	"github.com/barna-bash/URelf/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter создаёт и настраивает маршрутизатор.
// Публичный редирект идёт без авторизации; /api требует X-Api-Key,
// проходит rate limiter и пишет журнал активности.
func NewRouter(handler *handlers.Handler, accounts *service.AccountService, activity repositories.ActivityRepositoryInterface, ipLimiter *middleware.IPLimiter, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.LoggingMiddleware(logger)) // Подключаем логирование
	r.Use(middleware.GzipMiddleware)            // Gzip-сжатие

	r.Get("/ping", handler.Ping)
	r.Get("/{alias}", handler.Redirect)

	r.Route("/api", func(api chi.Router) {
		// Регистрация публична, поэтому троттлится по IP.
		api.With(ipLimiter.Middleware).Post("/register", handler.Register)

		api.Group(func(priv chi.Router) {
			priv.Use(middleware.APIKeyMiddleware(accounts, logger))
			priv.Use(middleware.ActivityMiddleware(activity, logger))

			priv.Route("/urls", func(urls chi.Router) {
				urls.Get("/", handler.ListAliases)
				urls.Post("/", handler.CreateAlias)
				urls.Get("/{id}", handler.GetAlias)
				urls.Put("/{id}", handler.UpdateAlias)
				urls.Delete("/{id}", handler.DeleteAlias)
			})

			priv.Get("/analytics/{alias}", handler.Analytics)
		})
	})

	return r
}
