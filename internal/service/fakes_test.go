package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/model"
)

// fakeAliasRepo — детерминированная замена репозитория ссылок для тестов.
// Считает обращения, чтобы проверять, что кэш действительно отсекает хранилище.
type fakeAliasRepo struct {
	mu         sync.Mutex
	nextID     uint64
	records    map[uint64]*model.AliasRecord
	visits     map[string][]time.Time
	getCalls   int
	insertHook func(rec *model.AliasRecord) error
}

func newFakeAliasRepo() *fakeAliasRepo {
	return &fakeAliasRepo{
		records: make(map[uint64]*model.AliasRecord),
		visits:  make(map[string][]time.Time),
	}
}

func (f *fakeAliasRepo) Insert(_ context.Context, rec *model.AliasRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertHook != nil {
		if err := f.insertHook(rec); err != nil {
			return err
		}
	}
	if rec.Alias != "" {
		for _, existing := range f.records {
			if existing.Alias == rec.Alias {
				return apperrors.ErrAliasTaken
			}
		}
	}
	f.nextID++
	rec.ID = f.nextID
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeAliasRepo) GetByAlias(_ context.Context, alias string, notExpiredOnly bool) (*model.AliasRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	for _, rec := range f.records {
		if rec.Alias != alias {
			continue
		}
		if notExpiredOnly && !rec.ExpiresAt.After(time.Now()) {
			return nil, apperrors.ErrNotFound
		}
		cp := *rec
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeAliasRepo) GetByID(_ context.Context, ownerID string, id uint64) (*model.AliasRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeAliasRepo) ListByOwner(_ context.Context, ownerID string) ([]*model.AliasRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.AliasRecord
	for _, rec := range f.records {
		if rec.OwnerID == ownerID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeAliasRepo) Update(_ context.Context, rec *model.AliasRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.records[rec.ID]
	if !ok || existing.OwnerID != rec.OwnerID {
		return apperrors.ErrNotFound
	}
	if rec.Alias != "" {
		for id, other := range f.records {
			if id != rec.ID && other.Alias == rec.Alias {
				return apperrors.ErrAliasTaken
			}
		}
	}
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeAliasRepo) Delete(_ context.Context, ownerID string, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok || rec.OwnerID != ownerID {
		return apperrors.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeAliasRepo) AppendVisit(_ context.Context, alias string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.visits[alias] = append(f.visits[alias], ts)
	return nil
}

func (f *fakeAliasRepo) RecentVisits(_ context.Context, ownerID, alias string, limit int) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.ownsLocked(ownerID, alias) {
		return nil, nil
	}
	visits := append([]time.Time(nil), f.visits[alias]...)
	sort.Slice(visits, func(i, j int) bool { return visits[i].After(visits[j]) })
	if len(visits) > limit {
		visits = visits[:limit]
	}
	return visits, nil
}

func (f *fakeAliasRepo) CountVisits(_ context.Context, ownerID, alias string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.ownsLocked(ownerID, alias) {
		return 0, nil
	}
	return int64(len(f.visits[alias])), nil
}

func (f *fakeAliasRepo) Ping(_ context.Context) error { return nil }

func (f *fakeAliasRepo) ownsLocked(ownerID, alias string) bool {
	for _, rec := range f.records {
		if rec.Alias == alias && rec.OwnerID == ownerID {
			return true
		}
	}
	return false
}

func (f *fakeAliasRepo) visitCount(alias string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visits[alias])
}

func (f *fakeAliasRepo) storeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

// fakeActivityRepo хранит журнал активности в памяти.
type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []model.ActivityEntry
	err     error
}

func (f *fakeActivityRepo) Append(_ context.Context, entry *model.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) CountSince(_ context.Context, ownerID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, e := range f.entries {
		if e.OwnerID == ownerID && !e.OccurredAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeActivityRepo) CountKindSince(_ context.Context, ownerID string, kind model.ActivityKind, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, e := range f.entries {
		if e.OwnerID == ownerID && e.Kind == kind && !e.OccurredAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// fakeAccountRepo хранит учётные записи в памяти и считает обращения.
type fakeAccountRepo struct {
	mu       sync.Mutex
	byKey    map[string]*model.Account
	getCalls int
	err      error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byKey: make(map[string]*model.Account)}
}

func (f *fakeAccountRepo) Insert(_ context.Context, acc *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.byKey {
		if existing.UserName == acc.UserName {
			return apperrors.ErrAccountExists
		}
	}
	cp := *acc
	f.byKey[acc.APIKey] = &cp
	return nil
}

func (f *fakeAccountRepo) GetByAPIKey(_ context.Context, apiKey string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	acc, ok := f.byKey[apiKey]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}
