// Package apperrors содержит сентинельные ошибки доменного уровня.
// HTTP-коды назначает слой handlers, сервисы оперируют только этими значениями.
package apperrors

import "errors"

var (
	// ErrNotFound — ссылка отсутствует или уже истекла. Снаружи эти два
	// случая неразличимы.
	ErrNotFound = errors.New("alias not found")

	// ErrAliasTaken — алиас уже занят другой записью.
	ErrAliasTaken = errors.New("alias already taken")

	// ErrTooManyRequests — превышен rate limit или суточная квота.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrUnauthorized — нет прав на ресурс или неверный API-ключ.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccountExists — имя пользователя или email уже заняты.
	ErrAccountExists = errors.New("account already exists")

	// ErrValidation — некорректные данные запроса.
	ErrValidation = errors.New("validation failed")
)
