package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/barna-bash/URelf/internal/database"
	"github.com/barna-bash/URelf/internal/model"
)

// ActivityRepositoryInterface определяет методы журнала активности.
// Журнал append-only: записи только добавляются и читаются оконными запросами.
type ActivityRepositoryInterface interface {
	Append(ctx context.Context, entry *model.ActivityEntry) error
	CountSince(ctx context.Context, ownerID string, since time.Time) (int, error)
	CountKindSince(ctx context.Context, ownerID string, kind model.ActivityKind, since time.Time) (int, error)
}

// ActivityRepository реализует ActivityRepositoryInterface с использованием PostgreSQL.
type ActivityRepository struct {
	DB database.DBInterface
}

// NewActivityRepository создаёт новый экземпляр ActivityRepository.
func NewActivityRepository(db database.DBInterface) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

// Append добавляет запись в журнал.
func (r *ActivityRepository) Append(ctx context.Context, entry *model.ActivityEntry) error {
	query := `INSERT INTO activity_log (owner_id, kind, occurred_at) VALUES ($1, $2, $3)`

	_, err := r.DB.(*database.DB).Pool.Exec(ctx, query, entry.OwnerID, string(entry.Kind), entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// CountSince возвращает число записей владельца с момента since.
// Запрос всегда живой: кэшировать его нельзя, иначе limiter теряет смысл.
func (r *ActivityRepository) CountSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	var count int
	err := r.DB.(*database.DB).Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_log WHERE owner_id = $1 AND occurred_at >= $2`,
		ownerID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return count, nil
}

// CountKindSince возвращает число записей заданного типа с момента since.
func (r *ActivityRepository) CountKindSince(ctx context.Context, ownerID string, kind model.ActivityKind, since time.Time) (int, error) {
	var count int
	err := r.DB.(*database.DB).Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_log WHERE owner_id = $1 AND kind = $2 AND occurred_at >= $3`,
		ownerID, string(kind), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity by kind: %w", err)
	}
	return count, nil
}
