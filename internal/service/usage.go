package service

import (
	"context"
	"fmt"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/model"
	"go.uber.org/zap"
)

const (
	// DefaultUsageQueueSize — ёмкость очереди визитов по умолчанию.
	DefaultUsageQueueSize = 1024
	// usageWriteTimeout — таймаут записи одного визита.
	usageWriteTimeout = 5 * time.Second
	// DefaultRecentVisitsLimit — число переходов в аналитике по умолчанию.
	DefaultRecentVisitsLimit = 10
)

// VisitStore определяет операции хранилища истории переходов.
type VisitStore interface {
	AppendVisit(ctx context.Context, alias string, ts time.Time) error
	RecentVisits(ctx context.Context, ownerID, alias string, limit int) ([]time.Time, error)
	CountVisits(ctx context.Context, ownerID, alias string) (int64, error)
}

type visit struct {
	alias string
	ts    time.Time
}

// UsageRecorder пишет историю переходов через ограниченную очередь.
// Record никогда не блокирует путь редиректа: переполнение очереди и ошибки
// записи логируются, но не влияют на ответ.
type UsageRecorder struct {
	Repo   VisitStore
	Logger *zap.Logger
	queue  chan visit
	done   chan struct{}
}

// NewUsageRecorder создаёт UsageRecorder с очередью заданной ёмкости.
func NewUsageRecorder(repo VisitStore, logger *zap.Logger, queueSize int) *UsageRecorder {
	if queueSize <= 0 {
		queueSize = DefaultUsageQueueSize
	}
	return &UsageRecorder{
		Repo:   repo,
		Logger: logger,
		queue:  make(chan visit, queueSize),
		done:   make(chan struct{}),
	}
}

// Record ставит визит в очередь. При переполнении визит теряется с записью
// в лог: редирект дороже одной отметки аналитики.
func (u *UsageRecorder) Record(alias string) {
	select {
	case u.queue <- visit{alias: alias, ts: time.Now()}:
	default:
		u.Logger.Warn("Очередь визитов переполнена, визит отброшен",
			zap.String("alias", alias))
	}
}

// Run обрабатывает очередь до отмены контекста, затем дописывает остаток.
// По завершении закрывает канал Done: останов сервера ждёт его, прежде чем
// закрывать пул соединений.
func (u *UsageRecorder) Run(ctx context.Context) {
	defer close(u.done)

	for {
		select {
		case <-ctx.Done():
			u.drain()
			return
		case v := <-u.queue:
			u.flush(v)
		}
	}
}

// Done сообщает, что Run дописал остаток очереди и завершился.
func (u *UsageRecorder) Done() <-chan struct{} {
	return u.done
}

func (u *UsageRecorder) drain() {
	for {
		select {
		case v := <-u.queue:
			u.flush(v)
		default:
			return
		}
	}
}

// flush пишет визит в хранилище с собственным контекстом: время жизни
// исходного запроса здесь ни при чём.
func (u *UsageRecorder) flush(v visit) {
	ctx, cancel := context.WithTimeout(context.Background(), usageWriteTimeout)
	defer cancel()

	if err := u.Repo.AppendVisit(ctx, v.alias, v.ts); err != nil {
		u.Logger.Error("Не удалось записать визит",
			zap.String("alias", v.alias), zap.Error(err))
	}
}

// RecentVisits возвращает сводку переходов по алиасу владельца, новые первыми.
// Чужой или пустой алиас неразличимы: запрос обязан совпасть и по алиасу,
// и по владельцу одновременно.
func (u *UsageRecorder) RecentVisits(ctx context.Context, ownerID, alias string, limit int) (*model.AliasAnalytics, error) {
	if limit <= 0 {
		limit = DefaultRecentVisitsLimit
	}

	total, err := u.Repo.CountVisits(ctx, ownerID, alias)
	if err != nil {
		return nil, fmt.Errorf("visit count failed: %w", err)
	}
	if total == 0 {
		return nil, apperrors.ErrUnauthorized
	}

	visits, err := u.Repo.RecentVisits(ctx, ownerID, alias, limit)
	if err != nil {
		return nil, fmt.Errorf("recent visits query failed: %w", err)
	}

	return &model.AliasAnalytics{
		TotalRedirects: total,
		LastRedirects:  visits,
	}, nil
}
