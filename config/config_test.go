package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("ACCESS_TOKEN", "tok-123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", cfg.APIBaseURL, "trailing slash is trimmed")
	require.Equal(t, "tok-123", cfg.AccessToken)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, "/wallet/top-up", cfg.WalletTopUpURL)
	require.Nil(t, cfg.StopKeywords)
	require.Nil(t, cfg.ShapeKeywords)
}

func TestLoad_MissingBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("ACCESS_TOKEN", "tok-123")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "API_BASE_URL")
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("ACCESS_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ACCESS_TOKEN")
}

func TestLoad_InvalidTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "never")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("REQUEST_TIMEOUT_SECONDS", "0")
	_, err = Load()
	require.Error(t, err)
}

func TestLoad_KeywordOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("JOIN_STOP_KEYWORDS", "Captain, already , ")
	t.Setenv("JOIN_SHAPE_KEYWORDS", "field,payload")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"captain", "already"}, cfg.StopKeywords)
	require.Equal(t, []string{"field", "payload"}, cfg.ShapeKeywords)
}
