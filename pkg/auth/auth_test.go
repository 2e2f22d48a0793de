package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)

	tok, exp, err := iss.Issue("01HXUSER", "store_owner")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "01HXUSER", claims.Subject)
	assert.Equal(t, "store_owner", claims.Role)
}

func TestParse_Rejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, _, err := iss.Issue("u1", "customer")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewIssuer("other", time.Hour).Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewIssuer("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", h)
	assert.True(t, CheckPassword(h, "correct horse"))
	assert.False(t, CheckPassword(h, "battery staple"))
}

func TestPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = HashPassword(strings.Repeat("x", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestDealSigner(t *testing.T) {
	deals := NewDealSigner("secret", time.Hour)

	tok, exp, err := deals.Sign("01HXPRODUCT", 850)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := deals.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "01HXPRODUCT", claims.Subject)
	assert.Equal(t, 850, claims.Price)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewDealSigner("other", time.Hour).Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewDealSigner("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		_, err := NewIssuer("secret", time.Hour).Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("bearer token is not a deal", func(t *testing.T) {
		bearer, _, err := NewIssuer("secret", time.Hour).Issue("u1", "customer")
		require.NoError(t, err)
		_, err = deals.Verify(bearer)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
