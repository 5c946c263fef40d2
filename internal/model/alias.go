package model

import "time"

// DefaultRetention — срок жизни ссылки по умолчанию, если expires_at не задан.
const DefaultRetention = 7 * 24 * time.Hour

// AliasRecord представляет запись короткой ссылки в хранилище.
// Alias может быть пустым: уникальность действует только среди заданных значений.
type AliasRecord struct {
	ID          uint64
	Alias       string
	OriginalURL string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
}
