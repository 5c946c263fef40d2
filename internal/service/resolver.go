package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/cache"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/barna-bash/URelf/internal/util"
	"go.uber.org/zap"
)

// AliasReader читает записи ссылок из хранилища.
type AliasReader interface {
	GetByAlias(ctx context.Context, alias string, notExpiredOnly bool) (*model.AliasRecord, error)
}

// VisitRecorder принимает отметки переходов без блокировки вызывающего.
type VisitRecorder interface {
	Record(alias string)
}

// ResolverService разрешает алиас в оригинальный URL: кэш → хранилище →
// отметка визита → наполнение кэша. Кэшируется цель редиректа, а не побочный
// эффект: попадание в кэш всё равно регистрирует визит.
type ResolverService struct {
	Repo        AliasReader
	Cache       cache.Cache
	Usage       VisitRecorder
	Logger      *zap.Logger
	RedirectTTL time.Duration
}

// NewResolverService создаёт ResolverService.
func NewResolverService(repo AliasReader, c cache.Cache, usage VisitRecorder, logger *zap.Logger, redirectTTL time.Duration) *ResolverService {
	return &ResolverService{
		Repo:        repo,
		Cache:       c,
		Usage:       usage,
		Logger:      logger,
		RedirectTTL: redirectTTL,
	}
}

// Resolve возвращает оригинальный URL по алиасу. Отсутствующая и просроченная
// запись дают одинаковый apperrors.ErrNotFound. Ошибки кэша проглатываются:
// авторитетным остаётся хранилище.
func (s *ResolverService) Resolve(ctx context.Context, alias string) (string, error) {
	key := cache.RedirectKey(alias)

	cached, hit, err := s.Cache.Get(ctx, key)
	if err != nil {
		s.Logger.Warn("Кэш недоступен, читаем хранилище", zap.Error(err))
	}
	if hit {
		s.Usage.Record(alias)
		return util.EnsureProtocol(string(cached)), nil
	}

	rec, err := s.Repo.GetByAlias(ctx, alias, true)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("alias lookup failed: %w", err)
	}

	s.Usage.Record(alias)

	// TTL не переживает саму запись: ссылка с близким expires_at
	// не должна разрешаться из кэша после истечения.
	ttl := s.RedirectTTL
	if until := time.Until(rec.ExpiresAt); until < ttl {
		ttl = until
	}
	if ttl > 0 {
		if err := s.Cache.Set(ctx, key, []byte(rec.OriginalURL), ttl); err != nil {
			s.Logger.Warn("Не удалось наполнить кэш", zap.String("alias", alias), zap.Error(err))
		}
	}

	return util.EnsureProtocol(rec.OriginalURL), nil
}
