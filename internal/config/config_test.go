package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/ticket-tracker/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("AUDIT_LOCALE", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "en", cfg.Audit.Locale)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("AUDIT_LOCALE", "ru")
	t.Setenv("NOTIFY_LINK_BASE_URL", "https://tracker.example.com/")
	t.Setenv("REDIS_UNREAD_TTL_SECONDS", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, "ru", cfg.Audit.Locale)
	assert.Equal(t, "https://tracker.example.com", cfg.Notification.LinkBaseURL)
	assert.Zero(t, cfg.Redis.UnreadTTL())
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Run("store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		_, err := config.Load()
		assert.Error(t, err)
	})
	t.Run("audit locale", func(t *testing.T) {
		t.Setenv("AUDIT_LOCALE", "de")
		_, err := config.Load()
		assert.Error(t, err)
	})
	t.Run("redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "first")
		_, err := config.Load()
		assert.Error(t, err)
	})
}
