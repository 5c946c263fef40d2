package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/database"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AccountRepositoryInterface определяет методы репозитория учётных записей.
type AccountRepositoryInterface interface {
	Insert(ctx context.Context, acc *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Account, error)
}

// AccountRepository реализует AccountRepositoryInterface с использованием PostgreSQL.
type AccountRepository struct {
	DB database.DBInterface
}

// NewAccountRepository создаёт новый экземпляр AccountRepository.
func NewAccountRepository(db database.DBInterface) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `id, user_name, email, api_key, rate_limit, daily_quota, created_at`

// Insert сохраняет учётную запись. Конфликт по user_name или email
// транслируется в apperrors.ErrAccountExists.
func (r *AccountRepository) Insert(ctx context.Context, acc *model.Account) error {
	query := `INSERT INTO accounts (id, user_name, email, api_key, rate_limit, daily_quota, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.(*database.DB).Pool.Exec(ctx, query,
		acc.ID, acc.UserName, nullableString(acc.Email), acc.APIKey,
		acc.RateLimitPerMinute, acc.DailyQuota, acc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrAccountExists
		}
		return fmt.Errorf("database insert error: %w", err)
	}
	return nil
}

// GetByID извлекает учётную запись по идентификатору.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.queryAccount(ctx, query, id)
}

// GetByAPIKey извлекает учётную запись по API-ключу.
func (r *AccountRepository) GetByAPIKey(ctx context.Context, apiKey string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE api_key = $1`
	return r.queryAccount(ctx, query, apiKey)
}

func (r *AccountRepository) queryAccount(ctx context.Context, query string, arg any) (*model.Account, error) {
	acc := &model.Account{}
	var email *string
	err := r.DB.(*database.DB).Pool.QueryRow(ctx, query, arg).Scan(
		&acc.ID, &acc.UserName, &email, &acc.APIKey,
		&acc.RateLimitPerMinute, &acc.DailyQuota, &acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if email != nil {
		acc.Email = *email
	}
	return acc, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
