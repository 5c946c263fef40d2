package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/auth"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// rateWindow — скользящее окно rate limiter.
	rateWindow = time.Minute
	// accountCacheTTL — срок жизни учётной записи во внутрипроцессном кэше.
	// Учётные записи меняются редко, а вот счётчик окна всегда читается живьём.
	accountCacheTTL = time.Hour
)

// AccountStore определяет операции хранилища учётных записей.
type AccountStore interface {
	Insert(ctx context.Context, acc *model.Account) error
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Account, error)
}

// ActivityCounter читает журнал активности оконными запросами.
type ActivityCounter interface {
	CountSince(ctx context.Context, ownerID string, since time.Time) (int, error)
}

// AccountService отвечает за регистрацию, аутентификацию по API-ключу
// и rate limiting по скользящему окну журнала активности.
type AccountService struct {
	Accounts AccountStore
	Activity ActivityCounter
	Logger   *zap.Logger

	mu    sync.Mutex
	byKey map[string]accountCacheEntry
}

type accountCacheEntry struct {
	acc       *model.Account
	expiresAt time.Time
}

// NewAccountService создаёт AccountService.
func NewAccountService(accounts AccountStore, activity ActivityCounter, logger *zap.Logger) *AccountService {
	return &AccountService{
		Accounts: accounts,
		Activity: activity,
		Logger:   logger,
		byKey:    make(map[string]accountCacheEntry),
	}
}

// Register создаёт учётную запись и возвращает выпущенный API-ключ.
func (s *AccountService) Register(ctx context.Context, userName, email string) (string, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return "", fmt.Errorf("%w: user_name is required", apperrors.ErrValidation)
	}

	apiKey, err := auth.NewAPIKey()
	if err != nil {
		return "", err
	}

	acc := &model.Account{
		ID:                 uuid.NewString(),
		UserName:           userName,
		Email:              strings.TrimSpace(email),
		APIKey:             apiKey,
		RateLimitPerMinute: model.DefaultRateLimit,
		DailyQuota:         model.DefaultDailyQuota,
		CreatedAt:          time.Now(),
	}

	if err := s.Accounts.Insert(ctx, acc); err != nil {
		return "", err
	}

	s.Logger.Info("Зарегистрирована учётная запись", zap.String("user_name", userName))
	return apiKey, nil
}

// Authenticate разрешает API-ключ в учётную запись. Результат кэшируется
// на accountCacheTTL. Неизвестный ключ — ErrUnauthorized, отказ хранилища
// пробрасывается наверх: limiter обязан fail closed.
func (s *AccountService) Authenticate(ctx context.Context, apiKey string) (*model.Account, error) {
	if apiKey == "" {
		return nil, apperrors.ErrUnauthorized
	}

	now := time.Now()

	s.mu.Lock()
	ent, ok := s.byKey[apiKey]
	s.mu.Unlock()
	if ok && now.Before(ent.expiresAt) {
		return ent.acc, nil
	}

	acc, err := s.Accounts.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}

	s.mu.Lock()
	s.byKey[apiKey] = accountCacheEntry{acc: acc, expiresAt: now.Add(accountCacheTTL)}
	s.mu.Unlock()

	return acc, nil
}

// Allow решает, пропускать ли очередной запрос владельца: считает записи
// журнала за последнюю минуту против лимита учётной записи. Сам limiter
// журнал не пишет — запись делает middleware активности ниже по цепочке.
// Любая ошибка чтения означает отказ (fail closed).
func (s *AccountService) Allow(ctx context.Context, acc *model.Account) (bool, error) {
	count, err := s.Activity.CountSince(ctx, acc.ID, time.Now().Add(-rateWindow))
	if err != nil {
		return false, fmt.Errorf("rate window count failed: %w", err)
	}
	return count < acc.RateLimitPerMinute, nil
}
