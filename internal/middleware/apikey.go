package middleware

import (
	"errors"
	"net/http"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/auth"
	"github.com/barna-bash/URelf/internal/service"
	"go.uber.org/zap"
)

// APIKeyMiddleware аутентифицирует запрос по X-Api-Key и применяет
// rate limiter по скользящему окну. При любой ошибке инфраструктуры
// запрос отклоняется: отказ хранилища не обходит лимиты.
func APIKeyMiddleware(accounts *service.AccountService, logger *zap.Logger) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := auth.APIKeyFromRequest(r)
			if apiKey == "" {
				http.Error(w, "API key is missing", http.StatusUnauthorized)
				return
			}

			acc, err := accounts.Authenticate(r.Context(), apiKey)
			if err != nil {
				if errors.Is(err, apperrors.ErrUnauthorized) {
					http.Error(w, "Invalid API key", http.StatusUnauthorized)
					return
				}
				logger.Error("Аутентификация недоступна", zap.Error(err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			allowed, err := accounts.Allow(r.Context(), acc)
			if err != nil {
				logger.Error("Rate limiter недоступен, запрос отклонён", zap.Error(err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAccount(r.Context(), acc)))
		})
	}
}
