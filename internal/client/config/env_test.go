package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("LOANDESK_API_URL", "http://env:1/api")
	t.Setenv("LOANDESK_PAGE_SIZE", "20")
	t.Setenv("LOANDESK_REQUEST_TIMEOUT", "4s")
	t.Setenv("LOANDESK_LOG_LEVEL", "")

	cfg := defaults()
	require.NoError(t, parseEnv(&cfg))

	assert.Equal(t, "http://env:1/api", cfg.BaseURL)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 4*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel, "empty values are ignored")
}

func Test_parseEnv_BadValues(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		t.Setenv("LOANDESK_RETRY", "many")
		cfg := defaults()
		require.ErrorContains(t, parseEnv(&cfg), "LOANDESK_RETRY")
	})
	t.Run("duration", func(t *testing.T) {
		t.Setenv("LOANDESK_GC_TIME", "forever")
		cfg := defaults()
		require.ErrorContains(t, parseEnv(&cfg), "LOANDESK_GC_TIME")
	})
}

func Test_loadDotEnv(t *testing.T) {
	path := writeTempFile(t, ".env", "LOANDESK_PAGE_SIZE=33\nLOANDESK_LOG_LEVEL=debug\n")
	t.Setenv("LOANDESK_LOG_LEVEL", "error")
	t.Setenv("LOANDESK_PAGE_SIZE", "")

	require.NoError(t, loadDotEnv(path))

	cfg := defaults()
	require.NoError(t, parseEnv(&cfg))
	assert.Equal(t, "error", cfg.LogLevel, "process env wins over .env")

	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
