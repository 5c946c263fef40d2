package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/cache"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/barna-bash/URelf/internal/repositories"
	"github.com/barna-bash/URelf/internal/util"
	"go.uber.org/zap"
)

// maxAliasRetries — число попыток генерации при коллизии случайного алиаса.
// Коллизии редки, но возможны; гонку разрешает уникальный индекс при вставке.
const maxAliasRetries = 5

// listViewPath — путь спискового представления, под которым кэшируются ответы.
const listViewPath = "/api/urls"

func itemViewPath(id uint64) string {
	return fmt.Sprintf("%s/%d", listViewPath, id)
}

// QuotaCounter читает журнал создания для суточной квоты.
type QuotaCounter interface {
	CountKindSince(ctx context.Context, ownerID string, kind model.ActivityKind, since time.Time) (int, error)
}

// ShortenerService отвечает за выделение алиасов и CRUD ссылок владельца.
type ShortenerService struct {
	Repo     repositories.AliasRepositoryInterface
	Activity QuotaCounter
	Cache    cache.Cache
	Logger   *zap.Logger
}

// NewShortenerService создаёт ShortenerService.
func NewShortenerService(repo repositories.AliasRepositoryInterface, activity QuotaCounter, c cache.Cache, logger *zap.Logger) *ShortenerService {
	return &ShortenerService{
		Repo:     repo,
		Activity: activity,
		Cache:    c,
		Logger:   logger,
	}
}

// Create выделяет алиас и сохраняет ссылку. Пользовательский алиас при
// конфликте даёт ErrAliasTaken; сгенерированный при коллизии прозрачно
// перегенерируется. Без expires_at запись живёт model.DefaultRetention.
func (s *ShortenerService) Create(ctx context.Context, owner *model.Account, req *model.CreateAliasRequest) (*model.AliasRecord, error) {
	originalURL := strings.TrimSpace(req.OriginalURL)
	if originalURL == "" {
		return nil, fmt.Errorf("%w: original_url is required", apperrors.ErrValidation)
	}
	if req.CustomAlias != "" && !util.ValidAlias(req.CustomAlias) {
		return nil, fmt.Errorf("%w: invalid alias", apperrors.ErrValidation)
	}

	if err := s.checkDailyQuota(ctx, owner); err != nil {
		return nil, err
	}

	now := time.Now()
	expires := now.Add(model.DefaultRetention)
	if req.ExpiresAt != nil {
		expires = *req.ExpiresAt
	}
	if !expires.After(now) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", apperrors.ErrValidation)
	}

	rec := &model.AliasRecord{
		OriginalURL: originalURL,
		Description: req.Description,
		OwnerID:     owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   expires,
	}

	if req.CustomAlias != "" {
		rec.Alias = req.CustomAlias
		if err := s.Repo.Insert(ctx, rec); err != nil {
			return nil, err
		}
	} else if err := s.insertGenerated(ctx, rec); err != nil {
		return nil, err
	}

	s.invalidateViews(ctx, owner.ID, 0, rec.Alias)
	return rec, nil
}

// insertGenerated вставляет запись со случайным алиасом, перегенерируя его
// при нарушении уникальности. Предварительной проверки нет: точка истины —
// сама вставка.
func (s *ShortenerService) insertGenerated(ctx context.Context, rec *model.AliasRecord) error {
	for i := 0; i < maxAliasRetries; i++ {
		alias, err := util.GenerateAlias(util.GeneratedAliasLength)
		if err != nil {
			return err
		}
		rec.Alias = alias

		err = s.Repo.Insert(ctx, rec)
		if err == nil {
			return nil
		}
		if errors.Is(err, apperrors.ErrAliasTaken) {
			s.Logger.Info("Коллизия сгенерированного алиаса, повторяем",
				zap.String("alias", alias))
			continue
		}
		return err
	}
	return fmt.Errorf("failed to allocate alias after %d retries", maxAliasRetries)
}

// checkDailyQuota сверяет записи журнала о создании с начала суток (UTC)
// с квотой учётной записи. Мягкий колпак: гонка двух одновременных созданий
// под квотой допускается.
func (s *ShortenerService) checkDailyQuota(ctx context.Context, owner *model.Account) error {
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	count, err := s.Activity.CountKindSince(ctx, owner.ID, model.ActivityCreation, startOfDay)
	if err != nil {
		return fmt.Errorf("quota count failed: %w", err)
	}
	if count >= owner.DailyQuota {
		return fmt.Errorf("%w: daily quota reached", apperrors.ErrTooManyRequests)
	}
	return nil
}

// List возвращает ссылки владельца, новые первыми.
func (s *ShortenerService) List(ctx context.Context, ownerID string) ([]*model.AliasRecord, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Get возвращает ссылку владельца по идентификатору.
func (s *ShortenerService) Get(ctx context.Context, ownerID string, id uint64) (*model.AliasRecord, error) {
	return s.Repo.GetByID(ctx, ownerID, id)
}

// Update изменяет ссылку владельца. updated_at продвигается на каждой мутации,
// затронутые ключи кэша инвалидируются до того, как ответ уйдёт читателям.
func (s *ShortenerService) Update(ctx context.Context, owner *model.Account, id uint64, req *model.UpdateAliasRequest) (*model.AliasRecord, error) {
	rec, err := s.Repo.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, err
	}

	oldAlias := rec.Alias

	if req.OriginalURL != "" {
		trimmed := strings.TrimSpace(req.OriginalURL)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: original_url is required", apperrors.ErrValidation)
		}
		rec.OriginalURL = trimmed
	}
	if req.CustomAlias != "" {
		if !util.ValidAlias(req.CustomAlias) {
			return nil, fmt.Errorf("%w: invalid alias", apperrors.ErrValidation)
		}
		rec.Alias = req.CustomAlias
	}
	if req.Description != "" {
		rec.Description = req.Description
	}
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(rec.CreatedAt) {
			return nil, fmt.Errorf("%w: expires_at must be after creation", apperrors.ErrValidation)
		}
		rec.ExpiresAt = *req.ExpiresAt
	}
	rec.UpdatedAt = time.Now()

	if err := s.Repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.invalidateViews(ctx, owner.ID, id, oldAlias, rec.Alias)
	return rec, nil
}

// Delete удаляет ссылку владельца вместе с её записями кэша.
func (s *ShortenerService) Delete(ctx context.Context, owner *model.Account, id uint64) error {
	rec, err := s.Repo.GetByID(ctx, owner.ID, id)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, owner.ID, id); err != nil {
		return err
	}

	s.invalidateViews(ctx, owner.ID, id, rec.Alias)
	return nil
}

// invalidateViews сбрасывает списковое и штучное представления владельца
// и цели редиректа затронутых алиасов. Ошибки кэша только логируются.
func (s *ShortenerService) invalidateViews(ctx context.Context, ownerID string, id uint64, aliases ...string) {
	keys := []string{cache.AccountKey(ownerID, listViewPath)}
	if id != 0 {
		keys = append(keys, cache.AccountKey(ownerID, itemViewPath(id)))
	}
	for _, alias := range aliases {
		if alias != "" {
			keys = append(keys, cache.RedirectKey(alias))
		}
	}

	for _, key := range keys {
		if err := s.Cache.Invalidate(ctx, key); err != nil {
			s.Logger.Warn("Не удалось инвалидировать кэш",
				zap.String("key", key), zap.Error(err))
		}
	}
}
