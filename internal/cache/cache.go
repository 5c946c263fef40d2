// Package cache реализует cache-aside слой перед хранилищем.
// Все операции best-effort: ошибка кэша никогда не роняет запрос,
// вызывающая сторона проваливается в авторитетное хранилище.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache определяет интерфейс кэша. Инжектируется как зависимость:
// в проде — Redis или in-memory по конфигурации, в тестах — детерминированный MemoryCache.
type Cache interface {
	// Get возвращает значение по ключу. Второй результат false — промах.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set сохраняет значение с заданным TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate удаляет запись по ключу.
	Invalidate(ctx context.Context, key string) error
}

// RedirectKey — ключ разрешённой цели редиректа. Владелец в ключе
// отсутствует: публичный путь не авторизован.
func RedirectKey(alias string) string {
	return "redirect:" + alias
}

// AccountKey — ключ ответа для авторизованного маршрута: владелец +
// нормализованный путь. Маршрутизатор отдаёт /api/urls и /api/urls/ одним
// обработчиком, поэтому хвостовой слэш срезается: иначе инвалидация одного
// написания пути оставила бы второе жить до конца TTL.
func AccountKey(ownerID, path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return ownerID + ":" + path
}
