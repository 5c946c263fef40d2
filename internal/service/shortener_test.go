package service

import (
	"context"
	"testing"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/cache"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/barna-bash/URelf/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOwner() *model.Account {
	return &model.Account{
		ID:                 "owner-1",
		UserName:           "tester",
		RateLimitPerMinute: model.DefaultRateLimit,
		DailyQuota:         model.DefaultDailyQuota,
	}
}

func newShortenerFixture() (*ShortenerService, *fakeAliasRepo, *fakeActivityRepo) {
	repo := newFakeAliasRepo()
	activity := &fakeActivityRepo{}
	svc := NewShortenerService(repo, activity, cache.NewMemoryCache(0), zap.NewNop())
	return svc, repo, activity
}

func TestCreate_GeneratedAlias(t *testing.T) {
	svc, _, _ := newShortenerFixture()

	rec, err := svc.Create(context.Background(), testOwner(), &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)
	assert.Len(t, rec.Alias, util.GeneratedAliasLength)
	assert.NotZero(t, rec.ID)
}

func TestCreate_DefaultExpiry(t *testing.T) {
	svc, _, _ := newShortenerFixture()

	rec, err := svc.Create(context.Background(), testOwner(), &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)

	// Без expires_at запись живёт ровно DefaultRetention от момента создания.
	assert.Equal(t, rec.CreatedAt.Add(model.DefaultRetention), rec.ExpiresAt)
}

func TestCreate_CustomAlias(t *testing.T) {
	svc, _, _ := newShortenerFixture()

	rec, err := svc.Create(context.Background(), testOwner(), &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
		CustomAlias: "mylink",
	})
	require.NoError(t, err)
	assert.Equal(t, "mylink", rec.Alias)
}

func TestCreate_CustomAliasConflict(t *testing.T) {
	svc, _, _ := newShortenerFixture()
	owner := testOwner()

	_, err := svc.Create(context.Background(), owner, &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
		CustomAlias: "taken",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), owner, &model.CreateAliasRequest{
		OriginalURL: "https://other.example.com",
		CustomAlias: "taken",
	})
	assert.ErrorIs(t, err, apperrors.ErrAliasTaken)
}

func TestCreate_InvalidCustomAlias(t *testing.T) {
	svc, _, _ := newShortenerFixture()

	tests := []string{
		"with space",
		"слишком-длинный-пользовательский-алиас",
		"bad/slash",
	}
	for _, alias := range tests {
		_, err := svc.Create(context.Background(), testOwner(), &model.CreateAliasRequest{
			OriginalURL: "https://example.com",
			CustomAlias: alias,
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation, "alias %q", alias)
	}
}

func TestCreate_GeneratedCollisionRetries(t *testing.T) {
	svc, repo, _ := newShortenerFixture()

	// Форсируем коллизию на первых двух вставках: наружу Conflict не выходит,
	// аллокатор прозрачно перегенерирует алиас.
	collisions := 2
	repo.insertHook = func(rec *model.AliasRecord) error {
		if collisions > 0 {
			collisions--
			return apperrors.ErrAliasTaken
		}
		return nil
	}

	rec, err := svc.Create(context.Background(), testOwner(), &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)
	assert.Len(t, rec.Alias, util.GeneratedAliasLength)
	assert.Zero(t, collisions)
}

func TestCreate_GeneratedCollisionExhausted(t *testing.T) {
	svc, repo, _ := newShortenerFixture()

	repo.insertHook = func(rec *model.AliasRecord) error {
		return apperrors.ErrAliasTaken
	}

	_, err := svc.Create(context.Background(), testOwner(), &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrAliasTaken)
}

func TestCreate_DailyQuotaExceeded(t *testing.T) {
	svc, _, activity := newShortenerFixture()
	owner := testOwner()
	owner.DailyQuota = 2

	now := time.Now()
	for i := 0; i < 2; i++ {
		require.NoError(t, activity.Append(context.Background(), &model.ActivityEntry{
			OwnerID:    owner.ID,
			Kind:       model.ActivityCreation,
			OccurredAt: now,
		}))
	}

	_, err := svc.Create(context.Background(), owner, &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
	})
	assert.ErrorIs(t, err, apperrors.ErrTooManyRequests)
}

func TestCreate_EmptyURL(t *testing.T) {
	svc, _, _ := newShortenerFixture()

	_, err := svc.Create(context.Background(), testOwner(), &model.CreateAliasRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreate_ExpiryInPast(t *testing.T) {
	svc, _, _ := newShortenerFixture()

	past := time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), testOwner(), &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
		ExpiresAt:   &past,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdate_AdvancesUpdatedAt(t *testing.T) {
	svc, _, _ := newShortenerFixture()
	owner := testOwner()

	rec, err := svc.Create(context.Background(), owner, &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), owner, rec.ID, &model.UpdateAliasRequest{
		OriginalURL: "https://new.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", updated.OriginalURL)
	assert.False(t, updated.UpdatedAt.Before(rec.UpdatedAt))
}

func TestUpdate_BlankURL(t *testing.T) {
	svc, _, _ := newShortenerFixture()
	owner := testOwner()

	rec, err := svc.Create(context.Background(), owner, &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)

	// Пробельный original_url не превращается в пустой: ссылка без цели
	// недопустима.
	_, err = svc.Update(context.Background(), owner, rec.ID, &model.UpdateAliasRequest{
		OriginalURL: "   ",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	kept, err := svc.Get(context.Background(), owner.ID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", kept.OriginalURL)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newShortenerFixture()

	_, err := svc.Update(context.Background(), testOwner(), 42, &model.UpdateAliasRequest{
		OriginalURL: "https://example.com",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDelete_InvalidatesRedirectCache(t *testing.T) {
	repo := newFakeAliasRepo()
	store := cache.NewMemoryCache(0)
	svc := NewShortenerService(repo, &fakeActivityRepo{}, store, zap.NewNop())
	owner := testOwner()

	rec, err := svc.Create(context.Background(), owner, &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
		CustomAlias: "gone",
	})
	require.NoError(t, err)

	key := cache.RedirectKey("gone")
	require.NoError(t, store.Set(context.Background(), key, []byte("https://example.com"), time.Hour))

	require.NoError(t, svc.Delete(context.Background(), owner, rec.ID))

	_, hit, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestList_OwnerScoped(t *testing.T) {
	svc, _, _ := newShortenerFixture()
	owner := testOwner()

	_, err := svc.Create(context.Background(), owner, &model.CreateAliasRequest{
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)

	records, err := svc.List(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = svc.List(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.Empty(t, records)
}
