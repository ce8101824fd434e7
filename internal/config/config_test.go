package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("THESIS_JWT_SECRET", "secret")
	t.Setenv("THESIS_APP_PUBLIC_URL", "https://thesis.example/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Thesis API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "https://thesis.example", cfg.AppPublicURL)
	require.Equal(t, 10*time.Minute, cfg.ConfigCacheTTL)
	require.Equal(t, 10*time.Second, cfg.LockTTL)
	require.Equal(t, 120, cfg.RateLimitMax)
	require.True(t, cfg.AutoMigrate)
	require.False(t, cfg.SMTPEnabled())
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("THESIS_JWT_SECRET", "secret")
	t.Setenv("THESIS_APP_PORT", ":9090")
	t.Setenv("THESIS_CONFIG_CACHE_TTL", "30s")
	t.Setenv("THESIS_SMTP_HOST", "smtp.uni.test")
	t.Setenv("THESIS_SMTP_PORT", "2525")
	t.Setenv("THESIS_RATE_LIMIT_MAX", "-4")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 30*time.Second, cfg.ConfigCacheTTL)
	require.True(t, cfg.SMTPEnabled())
	require.Equal(t, 2525, cfg.SMTPPort)
	require.Equal(t, 120, cfg.RateLimitMax)
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("THESIS_JWT_SECRET", "")
	_, err := Load()
	require.ErrorContains(t, err, "jwt secret")

	t.Setenv("THESIS_JWT_SECRET", "secret")
	t.Setenv("THESIS_LOCK_TTL", "soon")
	_, err = Load()
	require.ErrorContains(t, err, "invalid lock ttl")
}
