package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	j := NewJWT("test-secret", time.Minute, time.Hour)

	pair, err := j.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := j.Verify(pair.AccessToken, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	userID, err = j.Verify(pair.RefreshToken, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestVerifyRejectsWrongType(t *testing.T) {
	j := NewJWT("test-secret", time.Minute, time.Hour)
	pair, err := j.Issue("user-123")
	require.NoError(t, err)

	_, err = j.Verify(pair.RefreshToken, TypeAccess)
	assert.Error(t, err)
	_, err = j.Verify(pair.AccessToken, TypeRefresh)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	pair, err := NewJWT("secret-a", time.Minute, time.Hour).Issue("user-123")
	require.NoError(t, err)

	_, err = NewJWT("secret-b", time.Minute, time.Hour).Verify(pair.AccessToken, TypeAccess)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	j := NewJWT("test-secret", -time.Minute, time.Hour)
	pair, err := j.Issue("user-123")
	require.NoError(t, err)

	_, err = j.Verify(pair.AccessToken, TypeAccess)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	j := NewJWT("test-secret", time.Minute, time.Hour)
	_, err := j.Verify("not-a-token", TypeAccess)
	assert.Error(t, err)
}

func TestRefreshRotatesPair(t *testing.T) {
	j := NewJWT("test-secret", time.Minute, time.Hour)
	pair, err := j.Issue("user-123")
	require.NoError(t, err)

	fresh, err := j.Refresh(pair.RefreshToken)
	require.NoError(t, err)

	userID, err := j.Verify(fresh.AccessToken, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	// An access token cannot be used to refresh.
	_, err = j.Refresh(pair.AccessToken)
	assert.Error(t, err)
}
