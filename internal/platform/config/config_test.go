package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_NAME", "leetlab")
	Load()
	require.NotNil(t, AppConfig)

	assert.Equal(t, time.Hour, AppConfig.JWTExp)
	assert.Equal(t, 10, AppConfig.JudgePollAttempts)
	assert.Equal(t, time.Second, AppConfig.JudgePollInterval)
	assert.Contains(t, AppConfig.DBConnStr, "dbname=leetlab")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JUDGE_POLL_ATTEMPTS", "3")
	t.Setenv("JUDGE_POLL_INTERVAL", "250ms")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("JWT_EXPIRATION_HOURS", "not-a-number")
	Load()

	assert.Equal(t, 3, AppConfig.JudgePollAttempts)
	assert.Equal(t, 250*time.Millisecond, AppConfig.JudgePollInterval)
	assert.True(t, AppConfig.CookieSecure)
	assert.Equal(t, time.Hour, AppConfig.JWTExp)
}
