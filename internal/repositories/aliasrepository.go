package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/database"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AliasRepositoryInterface определяет методы репозитория коротких ссылок.
type AliasRepositoryInterface interface {
	Insert(ctx context.Context, rec *model.AliasRecord) error
	GetByAlias(ctx context.Context, alias string, notExpiredOnly bool) (*model.AliasRecord, error)
	GetByID(ctx context.Context, ownerID string, id uint64) (*model.AliasRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.AliasRecord, error)
	Update(ctx context.Context, rec *model.AliasRecord) error
	Delete(ctx context.Context, ownerID string, id uint64) error
	AppendVisit(ctx context.Context, alias string, ts time.Time) error
	RecentVisits(ctx context.Context, ownerID, alias string, limit int) ([]time.Time, error)
	CountVisits(ctx context.Context, ownerID, alias string) (int64, error)
	Ping(ctx context.Context) error
}

// AliasRepository реализует AliasRepositoryInterface с использованием PostgreSQL.
type AliasRepository struct {
	DB database.DBInterface
}

// NewAliasRepository создаёт новый экземпляр AliasRepository.
func NewAliasRepository(db database.DBInterface) *AliasRepository {
	return &AliasRepository{DB: db}
}

// Insert сохраняет запись в базу данных. Нарушение частичного уникального
// индекса по alias транслируется в apperrors.ErrAliasTaken: именно вставка,
// а не предварительная проверка, разрешает гонку одновременных генераций.
func (r *AliasRepository) Insert(ctx context.Context, rec *model.AliasRecord) error {
	query := `INSERT INTO aliases (alias, original_url, description, owner_id, created_at, updated_at, expires_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id`

	err := r.DB.(*database.DB).Pool.QueryRow(ctx, query,
		nullableAlias(rec.Alias), rec.OriginalURL, rec.Description, rec.OwnerID,
		rec.CreatedAt, rec.UpdatedAt, rec.ExpiresAt,
	).Scan(&rec.ID)
	if err != nil {
		if isAliasConflict(err) {
			return apperrors.ErrAliasTaken
		}
		return fmt.Errorf("database insert error: %w", err)
	}
	return nil
}

// GetByAlias извлекает запись по алиасу. При notExpiredOnly просроченные
// записи неотличимы от отсутствующих.
func (r *AliasRepository) GetByAlias(ctx context.Context, alias string, notExpiredOnly bool) (*model.AliasRecord, error) {
	query := `SELECT id, alias, original_url, description, owner_id, created_at, updated_at, expires_at
              FROM aliases WHERE alias = $1`
	if notExpiredOnly {
		query += ` AND expires_at > NOW()`
	}

	rec, err := r.scanRecord(r.DB.(*database.DB).Pool.QueryRow(ctx, query, alias))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return rec, nil
}

// GetByID извлекает запись владельца по идентификатору.
func (r *AliasRepository) GetByID(ctx context.Context, ownerID string, id uint64) (*model.AliasRecord, error) {
	query := `SELECT id, alias, original_url, description, owner_id, created_at, updated_at, expires_at
              FROM aliases WHERE id = $1 AND owner_id = $2`

	rec, err := r.scanRecord(r.DB.(*database.DB).Pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return rec, nil
}

// ListByOwner возвращает все ссылки владельца, новые первыми.
func (r *AliasRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.AliasRecord, error) {
	query := `SELECT id, alias, original_url, description, owner_id, created_at, updated_at, expires_at
              FROM aliases WHERE owner_id = $1 ORDER BY id DESC`

	rows, err := r.DB.(*database.DB).Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases by owner: %w", err)
	}
	defer rows.Close()

	var results []*model.AliasRecord
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Update перезаписывает изменяемые поля записи. updated_at продвигается всегда.
func (r *AliasRepository) Update(ctx context.Context, rec *model.AliasRecord) error {
	query := `UPDATE aliases
              SET alias = $1, original_url = $2, description = $3, updated_at = $4, expires_at = $5
              WHERE id = $6 AND owner_id = $7`

	tag, err := r.DB.(*database.DB).Pool.Exec(ctx, query,
		nullableAlias(rec.Alias), rec.OriginalURL, rec.Description,
		rec.UpdatedAt, rec.ExpiresAt, rec.ID, rec.OwnerID,
	)
	if err != nil {
		if isAliasConflict(err) {
			return apperrors.ErrAliasTaken
		}
		return fmt.Errorf("database update error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет запись владельца вместе с историей переходов.
func (r *AliasRepository) Delete(ctx context.Context, ownerID string, id uint64) error {
	tag, err := r.DB.(*database.DB).Pool.Exec(ctx,
		`DELETE FROM aliases WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("database delete error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AppendVisit добавляет отметку перехода в историю алиаса. История
// append-only; дубликат отметки безвреден для аналитики.
func (r *AliasRepository) AppendVisit(ctx context.Context, alias string, ts time.Time) error {
	query := `INSERT INTO alias_visits (alias_id, visited_at)
              SELECT id, $2 FROM aliases WHERE alias = $1`

	tag, err := r.DB.(*database.DB).Pool.Exec(ctx, query, alias, ts)
	if err != nil {
		return fmt.Errorf("failed to append visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Запись могли удалить между редиректом и записью визита.
		return apperrors.ErrNotFound
	}
	return nil
}

// RecentVisits возвращает последние переходы по алиасу владельца, новые первыми.
// Владение проверяется самим запросом: alias и owner_id должны совпасть одновременно.
func (r *AliasRepository) RecentVisits(ctx context.Context, ownerID, alias string, limit int) ([]time.Time, error) {
	query := `SELECT v.visited_at
              FROM alias_visits v
              JOIN aliases a ON a.id = v.alias_id
              WHERE a.alias = $1 AND a.owner_id = $2
              ORDER BY v.visited_at DESC
              LIMIT $3`

	rows, err := r.DB.(*database.DB).Pool.Query(ctx, query, alias, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, ts)
	}
	return visits, rows.Err()
}

// CountVisits возвращает общее число переходов по алиасу владельца.
func (r *AliasRepository) CountVisits(ctx context.Context, ownerID, alias string) (int64, error) {
	query := `SELECT COUNT(*)
              FROM alias_visits v
              JOIN aliases a ON a.id = v.alias_id
              WHERE a.alias = $1 AND a.owner_id = $2`

	var count int64
	err := r.DB.(*database.DB).Pool.QueryRow(ctx, query, alias, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

// Ping проверяет доступность базы данных.
func (r *AliasRepository) Ping(ctx context.Context) error {
	_, err := r.DB.(*database.DB).Pool.Exec(ctx, "SELECT 1")
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AliasRepository) scanRecord(row rowScanner) (*model.AliasRecord, error) {
	rec := &model.AliasRecord{}
	var alias *string
	err := row.Scan(&rec.ID, &alias, &rec.OriginalURL, &rec.Description,
		&rec.OwnerID, &rec.CreatedAt, &rec.UpdatedAt, &rec.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if alias != nil {
		rec.Alias = *alias
	}
	return rec, nil
}

// nullableAlias превращает пустой алиас в NULL: частичная уникальность
// действует только среди заданных значений.
func nullableAlias(alias string) any {
	if alias == "" {
		return nil
	}
	return alias
}

func isAliasConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "alias")
}
