package model

import "time"

// CreateAliasRequest представляет структуру запроса на создание короткой ссылки.
type CreateAliasRequest struct {
	OriginalURL string     `json:"original_url"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	Description string     `json:"description,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// UpdateAliasRequest представляет структуру запроса на обновление ссылки.
type UpdateAliasRequest struct {
	OriginalURL string     `json:"original_url,omitempty"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	Description string     `json:"description,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// AliasResponse представляет структуру ответа с короткой ссылкой.
type AliasResponse struct {
	ID          uint64    `json:"id"`
	Alias       string    `json:"alias"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RegisterRequest представляет структуру запроса на регистрацию.
type RegisterRequest struct {
	UserName string `json:"user_name"`
	Email    string `json:"email,omitempty"`
}

// RegisterResponse представляет структуру ответа с выданным API-ключом.
type RegisterResponse struct {
	APIKey string `json:"api_key"`
}

// AliasAnalytics представляет сводку переходов по ссылке.
type AliasAnalytics struct {
	TotalRedirects int64       `json:"total_redirects"`
	LastRedirects  []time.Time `json:"last_redirects"`
}
