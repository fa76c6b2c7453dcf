package security

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"leetlab/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJWT(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	InitJWT()
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	setupJWT(t)

	tok, err := GenerateToken("user-1", "a@b.c", "admin")
	require.NoError(t, err)

	parsed, err := jwtauth.VerifyToken(TokenAuth, tok)
	require.NoError(t, err)
	claims, err := parsed.AsMap(context.Background())
	require.NoError(t, err)

	id, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	role, err := GetUserRoleFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	exp, err := GetExpiryFromClaims(claims)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	setupJWT(t)
	tok, err := GenerateToken("user-1", "a@b.c", "user")
	require.NoError(t, err)

	other := jwtauth.New("HS256", []byte("another-secret"), nil)
	_, err = jwtauth.VerifyToken(other, tok)
	assert.Error(t, err)
}

func TestRawTokenPrefersCookie(t *testing.T) {
	setupJWT(t)
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", RawToken(r))

	r.AddCookie(SessionCookie("cookie-token"))
	assert.Equal(t, "cookie-token", RawToken(r))
}

func TestSessionCookie(t *testing.T) {
	setupJWT(t)
	c := SessionCookie("abc")
	assert.Equal(t, SessionCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, -1, ExpiredSessionCookie().MaxAge)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("S3cret!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "S3cret!pass", hash)
	assert.True(t, CheckPasswordHash("S3cret!pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
