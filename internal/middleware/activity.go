package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/barna-bash/URelf/internal/auth"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/barna-bash/URelf/internal/repositories"
	"go.uber.org/zap"
)

const activityWriteTimeout = 5 * time.Second

// ActivityMiddleware дописывает запись в журнал активности после ответа.
// Журнал питает rate limiter и суточную квоту, поэтому пишутся только
// запросы, прошедшие аутентификацию. Запись отвязана от запроса:
// её отказ логируется и не влияет на ответ.
func ActivityMiddleware(activity repositories.ActivityRepositoryInterface, logger *zap.Logger) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			acc, ok := auth.AccountFromContext(r.Context())
			if !ok {
				return
			}

			entry := &model.ActivityEntry{
				OwnerID:    acc.ID,
				Kind:       kindForMethod(r.Method),
				OccurredAt: time.Now(),
			}

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), activityWriteTimeout)
				defer cancel()

				if err := activity.Append(ctx, entry); err != nil {
					logger.Error("Не удалось записать активность",
						zap.String("owner_id", entry.OwnerID), zap.Error(err))
				}
			}()
		})
	}
}

func kindForMethod(method string) model.ActivityKind {
	switch method {
	case http.MethodPost:
		return model.ActivityCreation
	case http.MethodGet, http.MethodHead:
		return model.ActivityResolution
	default:
		return model.ActivityMutation
	}
}
