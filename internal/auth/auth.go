// Package auth отвечает за API-ключи: выпуск, извлечение из запроса
// и передачу аутентифицированной учётной записи через контекст.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/barna-bash/URelf/internal/model"
)

// HeaderAPIKey — заголовок с API-ключом клиента.
const HeaderAPIKey = "X-Api-Key"

const apiKeyBytes = 16 // 32 hex-символа

type contextKey int

const accountContextKey contextKey = iota

// NewAPIKey выпускает новый API-ключ.
func NewAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("api key generation failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// APIKeyFromRequest извлекает API-ключ из заголовка запроса.
func APIKeyFromRequest(r *http.Request) string {
	return r.Header.Get(HeaderAPIKey)
}

// WithAccount кладёт учётную запись в контекст запроса.
func WithAccount(ctx context.Context, acc *model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acc)
}

// AccountFromContext достаёт учётную запись из контекста.
func AccountFromContext(ctx context.Context) (*model.Account, bool) {
	acc, ok := ctx.Value(accountContextKey).(*model.Account)
	return acc, ok
}
