package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barna-bash/URelf/internal/auth"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIKey(t *testing.T) {
	key, err := auth.NewAPIKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.Regexp(t, "^[0-9a-f]+$", key)
}

func TestNewAPIKey_Unique(t *testing.T) {
	a, err := auth.NewAPIKey()
	require.NoError(t, err)
	b, err := auth.NewAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAPIKeyFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.HeaderAPIKey, "abcdef")

	assert.Equal(t, "abcdef", auth.APIKeyFromRequest(req))
}

func TestAPIKeyFromRequest_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, auth.APIKeyFromRequest(req))
}

func TestAccountContextRoundTrip(t *testing.T) {
	acc := &model.Account{ID: "owner-1", UserName: "tester"}

	ctx := auth.WithAccount(context.Background(), acc)
	got, ok := auth.AccountFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, acc, got)
}

func TestAccountFromContext_Empty(t *testing.T) {
	_, ok := auth.AccountFromContext(context.Background())
	assert.False(t, ok)
}
