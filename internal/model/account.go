package model

import "time"

const (
	// DefaultRateLimit — запросов в минуту по умолчанию.
	DefaultRateLimit = 60
	// DefaultDailyQuota — создание ссылок в сутки по умолчанию.
	DefaultDailyQuota = 100
)

// Account представляет учётную запись владельца ссылок.
type Account struct {
	ID                 string
	UserName           string
	Email              string
	APIKey             string
	RateLimitPerMinute int
	DailyQuota         int
	CreatedAt          time.Time
}
