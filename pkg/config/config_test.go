package config_test

import (
	"testing"
	"time"

	"github.com/hugh/langhub/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2*time.Second, cfg.Access.ResolveTimeout())
	assert.Equal(t, config.LockBackendLocal, cfg.Access.LockBackend)
	assert.Equal(t, 14*24*time.Hour, cfg.Worker.LicenseExpiryWarning())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ACCESS_LOCK_BACKEND", "REDIS")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BILLING_SYNC_CRON", "0 * * * *")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.LockBackendRedis, cfg.Access.LockBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "0 * * * *", cfg.Worker.BillingSyncCron)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad lock backend", "ACCESS_LOCK_BACKEND", "etcd"},
		{"bad cron", "LICENSE_CHECK_CRON", "every day"},
		{"zero timeout", "ACCESS_RESOLVE_TIMEOUT_MS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_ProductionSecret(t *testing.T) {
	t.Setenv("SERVER_ENV", "production")
	_, err := config.Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = config.Load()
	assert.NoError(t, err)
}
