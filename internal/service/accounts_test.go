package service

import (
	"context"
	"testing"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAccountFixture() (*AccountService, *fakeAccountRepo, *fakeActivityRepo) {
	accounts := newFakeAccountRepo()
	activity := &fakeActivityRepo{}
	return NewAccountService(accounts, activity, zap.NewNop()), accounts, activity
}

func TestRegister_IssuesAPIKey(t *testing.T) {
	svc, _, _ := newAccountFixture()

	apiKey, err := svc.Register(context.Background(), "tester", "tester@example.com")
	require.NoError(t, err)
	assert.Len(t, apiKey, 32)
	assert.Regexp(t, "^[0-9a-f]+$", apiKey)
}

func TestRegister_DuplicateUserName(t *testing.T) {
	svc, _, _ := newAccountFixture()

	_, err := svc.Register(context.Background(), "tester", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "tester", "")
	assert.ErrorIs(t, err, apperrors.ErrAccountExists)
}

func TestRegister_EmptyUserName(t *testing.T) {
	svc, _, _ := newAccountFixture()

	_, err := svc.Register(context.Background(), "  ", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newAccountFixture()

	apiKey, err := svc.Register(context.Background(), "tester", "")
	require.NoError(t, err)

	acc, err := svc.Authenticate(context.Background(), apiKey)
	require.NoError(t, err)
	assert.Equal(t, "tester", acc.UserName)
}

func TestAuthenticate_UnknownKey(t *testing.T) {
	svc, _, _ := newAccountFixture()

	_, err := svc.Authenticate(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticate_EmptyKey(t *testing.T) {
	svc, _, _ := newAccountFixture()

	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticate_CachesAccountLookup(t *testing.T) {
	svc, accounts, _ := newAccountFixture()

	apiKey, err := svc.Register(context.Background(), "tester", "")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), apiKey)
	require.NoError(t, err)
	callsAfterFirst := accounts.getCalls

	// Повторная аутентификация идёт из внутрипроцессного кэша.
	_, err = svc.Authenticate(context.Background(), apiKey)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, accounts.getCalls)
}

func TestAllow_SlidingWindow(t *testing.T) {
	svc, _, activity := newAccountFixture()

	acc := &model.Account{ID: "owner-1", RateLimitPerMinute: 3}

	now := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, activity.Append(context.Background(), &model.ActivityEntry{
			OwnerID:    acc.ID,
			Kind:       model.ActivityResolution,
			OccurredAt: now,
		}))
	}

	// Три записи за минуту при лимите 3 — четвёртый запрос отклоняется.
	allowed, err := svc.Allow(context.Background(), acc)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllow_WindowSlides(t *testing.T) {
	svc, _, activity := newAccountFixture()

	acc := &model.Account{ID: "owner-1", RateLimitPerMinute: 3}

	old := time.Now().Add(-2 * time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, activity.Append(context.Background(), &model.ActivityEntry{
			OwnerID:    acc.ID,
			Kind:       model.ActivityResolution,
			OccurredAt: old,
		}))
	}

	// Состарившиеся записи выпали из окна — запрос снова проходит.
	allowed, err := svc.Allow(context.Background(), acc)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllow_FailsClosed(t *testing.T) {
	svc, _, activity := newAccountFixture()
	activity.err = assert.AnError

	allowed, err := svc.Allow(context.Background(), &model.Account{ID: "owner-1", RateLimitPerMinute: 3})
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestAllow_IgnoresOtherOwners(t *testing.T) {
	svc, _, activity := newAccountFixture()

	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, activity.Append(context.Background(), &model.ActivityEntry{
			OwnerID:    "someone-else",
			Kind:       model.ActivityResolution,
			OccurredAt: now,
		}))
	}

	allowed, err := svc.Allow(context.Background(), &model.Account{ID: "owner-1", RateLimitPerMinute: 3})
	require.NoError(t, err)
	assert.True(t, allowed)
}
